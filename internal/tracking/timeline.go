package tracking

import (
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

type State string

const (
	StateCompleted State = "completed"
	StateCurrent   State = "current"
	StateUpcoming  State = "upcoming"
)

const (
	StepConfirmed = "Order Confirmed"
	StepProcessed = "Order Processed"
	StepShipped   = "Shipped"
	StepDelivered = "Delivered"
)

// Display fallbacks, counted from order creation.
const (
	processedOffset = 24 * time.Hour
	shippedOffset   = 2 * 24 * time.Hour
	deliveredOffset = 5 * 24 * time.Hour
)

type Step struct {
	Title     string    `json:"title"`
	State     State     `json:"state"`
	Date      time.Time `json:"date"`
	Estimated bool      `json:"estimated"`
}

type Dates struct {
	CreatedAt         time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
	EstimatedDelivery *time.Time
}

// DeriveTimeline maps a shipping status to the four customer-facing steps.
// in_transit counts as still shipping; unknown statuses read as pending.
func DeriveTimeline(status models.ShippingStatus, d Dates) []Step {
	processed, shipped, delivered := StateUpcoming, StateUpcoming, StateUpcoming

	switch status {
	case models.ShippingProcessing:
		processed = StateCurrent
	case models.ShippingShipped, models.ShippingInTransit:
		processed, shipped = StateCompleted, StateCurrent
	case models.ShippingDelivered:
		processed, shipped, delivered = StateCompleted, StateCompleted, StateCompleted
	}

	shippedDate, shippedEst := pick(d.CreatedAt.Add(shippedOffset), d.ShippedAt)
	deliveredDate, deliveredEst := pick(d.CreatedAt.Add(deliveredOffset), d.DeliveredAt, d.EstimatedDelivery)

	return []Step{
		{Title: StepConfirmed, State: StateCompleted, Date: d.CreatedAt},
		{Title: StepProcessed, State: processed, Date: d.CreatedAt.Add(processedOffset), Estimated: true},
		{Title: StepShipped, State: shipped, Date: shippedDate, Estimated: shippedEst},
		{Title: StepDelivered, State: delivered, Date: deliveredDate, Estimated: deliveredEst},
	}
}

// pick returns the first recorded timestamp, or fallback flagged as an
// estimate. Only the first candidate counts as recorded.
func pick(fallback time.Time, candidates ...*time.Time) (time.Time, bool) {
	for i, c := range candidates {
		if c != nil && !c.IsZero() {
			return *c, i > 0
		}
	}
	return fallback, true
}

// TimelineFor derives the timeline of an order, using its shipping record
// when present and the order status otherwise.
func TimelineFor(order models.Order, shipping *models.Shipping) []Step {
	d := Dates{CreatedAt: order.CreatedAt}
	status := models.ShippingStatus(order.Status)
	if shipping != nil {
		status = shipping.Status
		d.ShippedAt = shipping.ShippedAt
		d.DeliveredAt = shipping.DeliveredAt
		est := shipping.EstimatedDelivery
		d.EstimatedDelivery = &est
	}
	return DeriveTimeline(status, d)
}
