package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

var created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func states(steps []Step) []State {
	out := make([]State, len(steps))
	for i, s := range steps {
		out[i] = s.State
	}
	return out
}

func TestDeriveTimeline_States(t *testing.T) {
	t.Parallel()

	const (
		C = StateCompleted
		N = StateCurrent
		U = StateUpcoming
	)

	tests := []struct {
		status models.ShippingStatus
		want   []State
	}{
		{models.ShippingPending, []State{C, U, U, U}},
		{models.ShippingProcessing, []State{C, N, U, U}},
		{models.ShippingShipped, []State{C, C, N, U}},
		{models.ShippingInTransit, []State{C, C, N, U}},
		{models.ShippingDelivered, []State{C, C, C, C}},
		{"lost_in_space", []State{C, U, U, U}},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, states(DeriveTimeline(tc.status, Dates{CreatedAt: created})))
		})
	}
}

func TestDeriveTimeline_ShapeForEveryStatus(t *testing.T) {
	t.Parallel()

	all := []models.ShippingStatus{
		models.ShippingPending, models.ShippingProcessing, models.ShippingShipped,
		models.ShippingInTransit, models.ShippingDelivered,
	}
	for _, status := range all {
		steps := DeriveTimeline(status, Dates{CreatedAt: created})
		require.Len(t, steps, 4)
		assert.Equal(t, []string{StepConfirmed, StepProcessed, StepShipped, StepDelivered},
			[]string{steps[0].Title, steps[1].Title, steps[2].Title, steps[3].Title})

		current := -1
		for i, s := range steps {
			if s.State == StateCurrent {
				require.Equal(t, -1, current, "%s has two current steps", status)
				current = i
			}
		}
		for i := 0; i < current; i++ {
			assert.Equal(t, StateCompleted, steps[i].State, "%s step %d", status, i)
		}
	}
}

func TestDeriveTimeline_Idempotent(t *testing.T) {
	t.Parallel()

	shipped := created.Add(30 * time.Hour)
	d := Dates{CreatedAt: created, ShippedAt: &shipped}
	assert.Equal(t, DeriveTimeline(models.ShippingShipped, d), DeriveTimeline(models.ShippingShipped, d))
}

func TestDeriveTimeline_Dates(t *testing.T) {
	t.Parallel()

	steps := DeriveTimeline(models.ShippingProcessing, Dates{CreatedAt: created})
	assert.Equal(t, created, steps[0].Date)
	assert.False(t, steps[0].Estimated)
	assert.Equal(t, created.Add(24*time.Hour), steps[1].Date)
	assert.Equal(t, created.Add(48*time.Hour), steps[2].Date)
	assert.True(t, steps[2].Estimated)
	assert.Equal(t, created.Add(5*24*time.Hour), steps[3].Date)
	assert.True(t, steps[3].Estimated)

	shipped := created.Add(36 * time.Hour)
	eta := created.Add(4 * 24 * time.Hour)
	steps = DeriveTimeline(models.ShippingShipped, Dates{CreatedAt: created, ShippedAt: &shipped, EstimatedDelivery: &eta})
	assert.Equal(t, shipped, steps[2].Date)
	assert.False(t, steps[2].Estimated)
	assert.Equal(t, eta, steps[3].Date)
	assert.True(t, steps[3].Estimated)

	delivered := created.Add(3 * 24 * time.Hour)
	steps = DeriveTimeline(models.ShippingDelivered, Dates{CreatedAt: created, ShippedAt: &shipped, DeliveredAt: &delivered, EstimatedDelivery: &eta})
	assert.Equal(t, delivered, steps[3].Date)
	assert.False(t, steps[3].Estimated)
}

func TestTimelineFor_FallsBackToOrderStatus(t *testing.T) {
	t.Parallel()

	order := models.Order{Status: models.OrderShipped, CreatedAt: created}
	assert.Equal(t, StateCurrent, TimelineFor(order, nil)[2].State)

	ship := &models.Shipping{Status: models.ShippingDelivered, EstimatedDelivery: created.Add(72 * time.Hour)}
	steps := TimelineFor(order, ship)
	assert.Equal(t, StateCompleted, steps[3].State)
	assert.Equal(t, created.Add(72*time.Hour), steps[3].Date)
}
