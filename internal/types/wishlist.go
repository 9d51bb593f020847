package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistItem is a single membership record keyed by (owner, product).
type WishlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_owner_product;column:owner_id" json:"owner_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_owner_product;column:product_id" json:"product_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_item"
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
