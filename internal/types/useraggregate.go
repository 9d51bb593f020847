package types

import (
	"time"

	"github.com/google/uuid"
)

// UserAggregate carries the buyer's order count and lifetime spend. Both
// move together with order creation inside the commit transaction, never
// independently.
type UserAggregate struct {
	BuyerID            uuid.UUID `gorm:"type:uuid;primaryKey;column:buyer_id" json:"buyer_id"`
	OrderCount         int       `gorm:"not null;default:0;column:order_count" json:"order_count"`
	LifetimeSpendCents int64     `gorm:"not null;default:0;column:lifetime_spend_cents" json:"lifetime_spend_cents"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (UserAggregate) TableName() string {
	return "user_aggregate"
}
