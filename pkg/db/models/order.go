package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// Order is the source-of-truth header for a customer order. Money is stored in minor units.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	SessionID       *uuid.UUID          `gorm:"column:session_id;type:uuid;index"`
	Status          enums.OrderStatus   `gorm:"column:status;not null"`
	Payment         enums.PaymentMethod `gorm:"column:payment;not null"`
	OrderTotal      int64               `gorm:"column:order_total;not null"`
	ShippingFee     int64               `gorm:"column:shipping_fee;not null"`
	GrandTotal      int64               `gorm:"column:grand_total;not null"`
	ReceiverName    string              `gorm:"column:receiver_name;not null"`
	ReceiverPhone   string              `gorm:"column:receiver_phone_number;not null"`
	ReceiverAddress string              `gorm:"column:receiver_address;not null"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a product variant into an order at the price it was sold for.
type OrderItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantID          uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Name               string    `gorm:"column:name;not null"`
	Brand              string    `gorm:"column:brand"`
	Description        string    `gorm:"column:description"`
	PriceAfterDiscount int64     `gorm:"column:price_after_discount;not null"`
	Quantity           int       `gorm:"column:quantity;not null"`
	Subtotal           int64     `gorm:"column:subtotal;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

// OrderLog is the audit trail for order mutations.
type OrderLog struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	Action        string             `gorm:"column:action;not null"`
	ChangedByRole enums.ActorRole    `gorm:"column:changed_by_role;not null"`
	OldStatus     *enums.OrderStatus `gorm:"column:old_status"`
	NewStatus     *enums.OrderStatus `gorm:"column:new_status"`
	Note          *string            `gorm:"column:note"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (l *OrderLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
