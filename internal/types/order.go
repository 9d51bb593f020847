package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

// Order is created exactly once by the order commit transaction and is
// immutable afterwards except for status transitions owned by fulfillment.
type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerID         uuid.UUID   `gorm:"type:uuid;not null;index;column:buyer_id" json:"buyer_id"`
	Status          string      `gorm:"not null;column:status" json:"status"`
	ShippingAddress string      `gorm:"not null;column:shipping_address" json:"shipping_address"`
	TotalCents      int64       `gorm:"not null;column:total_cents" json:"total_cents"`
	Lines           []OrderLine `gorm:"foreignKey:OrderID" json:"lines"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string {
	return "order"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine snapshots name, quantity and the discounted unit price as they
// were at commit time; later product edits do not reach back into it.
type OrderLine struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID         `gorm:"type:uuid;not null;index;column:order_id" json:"order_id"`
	ProductID      uuid.UUID         `gorm:"type:uuid;not null;column:product_id" json:"product_id"`
	Name           datatypes.JSONMap `gorm:"not null;column:name" json:"name"`
	Quantity       int               `gorm:"not null;column:quantity" json:"quantity"`
	UnitPriceCents int64             `gorm:"not null;column:unit_price_cents" json:"unit_price_cents"`
}

func (OrderLine) TableName() string {
	return "order_line"
}

func (ol *OrderLine) BeforeCreate(tx *gorm.DB) error {
	if ol.ID == uuid.Nil {
		ol.ID = uuid.New()
	}
	return nil
}
