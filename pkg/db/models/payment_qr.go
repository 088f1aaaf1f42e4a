package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentQR is a bank account customers pay QR orders into. Name is the account holder.
type PaymentQR struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	BankName      string    `gorm:"column:bank_name;not null"`
	AccountNumber string    `gorm:"column:account_number;not null"`
	QRURL         string    `gorm:"column:qr_url;not null"`
	IsActive      bool      `gorm:"column:is_active;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PaymentQR) TableName() string { return "payment_qr" }

func (p *PaymentQR) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
