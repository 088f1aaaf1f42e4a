package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

// ClosedOrderStatuses are excluded from the "orders the customer can still change" listing.
var ClosedOrderStatuses = []OrderStatus{
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ItemsEditable reports whether order items may still be added, changed or removed.
func (s OrderStatus) ItemsEditable() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted:
		return false
	}
	return true
}

// Cancellable reports whether the order may transition to cancelled.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted:
		return false
	}
	return true
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// PaymentMethod records how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodQR  PaymentMethod = "QR"
	PaymentMethodCOD PaymentMethod = "COD"
)
