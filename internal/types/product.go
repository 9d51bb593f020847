package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is a shared-store record. Stock and Sold are only mutated through
// the order commit transaction; Stock never goes negative at a committed
// state.
type Product struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name            datatypes.JSONMap `gorm:"not null;column:name" json:"name"`
	PriceCents      int64             `gorm:"not null;column:price_cents" json:"price_cents"`
	DiscountPercent int               `gorm:"not null;default:0;column:discount_percent" json:"discount_percent"`
	Stock           int               `gorm:"not null;default:0;column:stock" json:"stock"`
	Sold            int               `gorm:"not null;default:0;column:sold" json:"sold"`
	CategoryID      string            `gorm:"not null;index;column:category_id" json:"category_id"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DiscountedPriceCents is the unit price after the current discount,
// truncated to whole cents.
func (p *Product) DiscountedPriceCents() int64 {
	return p.PriceCents * int64(100-p.DiscountPercent) / 100
}

// LocalizedName picks the name for lang, falling back to "en" and then to
// any available localization.
func (p *Product) LocalizedName(lang string) string {
	if v, ok := p.Name[lang].(string); ok && v != "" {
		return v
	}
	if v, ok := p.Name["en"].(string); ok && v != "" {
		return v
	}
	for _, v := range p.Name {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
