package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry; prices live on its variants.
type Product struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name             string           `gorm:"column:name;not null"`
	Brand            string           `gorm:"column:brand;not null"`
	BriefDescription string           `gorm:"column:brief_description"`
	Description      string           `gorm:"column:description"`
	ImageURL         *string          `gorm:"column:image_url"`
	Variants         []ProductVariant `gorm:"foreignKey:ProductID"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// ProductVariant is a purchasable SKU of a product.
type ProductVariant struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU                string    `gorm:"column:sku;not null"`
	VarName            string    `gorm:"column:var_name"`
	Value              string    `gorm:"column:value"`
	Price              int64     `gorm:"column:price;not null"`
	Discount           *int      `gorm:"column:discount"`
	PriceAfterDiscount *int64    `gorm:"column:price_after_discount"`
}

// QnA is a curated question/answer pair served to the product agent.
type QnA struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Question  string    `gorm:"column:question;not null"`
	Answer    string    `gorm:"column:answer;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (QnA) TableName() string { return "qna" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (q *QnA) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
