package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// EditableListLimit caps how many open orders are offered to the customer for changes.
const EditableListLimit = 5

// Repository defines persistence operations for orders, order items and order logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Place(ctx context.Context, order *models.Order, items []models.OrderItem, log *models.OrderLog) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateLog(ctx context.Context, log *models.OrderLog) error
	Details(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListEditable(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	UpdateReceiver(ctx context.Context, orderID uuid.UUID, receiver ReceiverUpdate) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpdateTotals(ctx context.Context, orderID uuid.UUID, totals Totals) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.OrderItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	SumSubtotals(ctx context.Context, orderID uuid.UUID) (int64, error)
	RecomputeTotals(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	ActivePaymentQR(ctx context.Context) (*models.PaymentQR, error)
}

// Totals are the money columns of an order header, in minor units. GrandTotal is always
// OrderTotal plus ShippingFee.
type Totals struct {
	OrderTotal  int64
	ShippingFee int64
	GrandTotal  int64
}

func newTotals(orderTotal, shippingFee int64) Totals {
	return Totals{OrderTotal: orderTotal, ShippingFee: shippingFee, GrandTotal: orderTotal + shippingFee}
}

// ReceiverUpdate carries the receiver fields to change; nil fields are left untouched.
type ReceiverUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

// Empty reports whether the update changes nothing.
func (u ReceiverUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Address == nil
}

func (u ReceiverUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["receiver_name"] = *u.Name
	}
	if u.Phone != nil {
		cols["receiver_phone_number"] = *u.Phone
	}
	if u.Address != nil {
		cols["receiver_address"] = *u.Address
	}
	return cols
}
