package models

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderShipped:    2,
	OrderDelivered:  3,
}

func (s OrderStatus) Valid() bool {
	if s == OrderCancelled {
		return true
	}
	_, ok := orderRank[s]
	return ok
}

// CanTransition allows forward moves (skipping is fine) and cancellation of
// anything not yet delivered. Cancelled and delivered are terminal.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	switch s {
	case OrderCancelled, OrderDelivered:
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return orderRank[to] > orderRank[s]
}

type ShippingStatus string

const (
	// ShippingPending is never written by the service but appears in older
	// rows and is understood by the timeline.
	ShippingPending    ShippingStatus = "pending"
	ShippingProcessing ShippingStatus = "processing"
	ShippingShipped    ShippingStatus = "shipped"
	ShippingInTransit  ShippingStatus = "in_transit"
	ShippingDelivered  ShippingStatus = "delivered"
)

var shippingRank = map[ShippingStatus]int{
	ShippingPending:    0,
	ShippingProcessing: 1,
	ShippingShipped:    2,
	ShippingInTransit:  3,
	ShippingDelivered:  4,
}

func (s ShippingStatus) Valid() bool {
	_, ok := shippingRank[s]
	return ok
}

// Settable reports whether an admin may write this status.
func (s ShippingStatus) Settable() bool {
	return s.Valid() && s != ShippingPending
}

func (s ShippingStatus) CanTransition(to ShippingStatus) bool {
	if !s.Valid() || !to.Settable() {
		return false
	}
	if s == to {
		return true
	}
	return shippingRank[to] > shippingRank[s]
}
