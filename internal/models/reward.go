package models

import "time"

// Reward is a catalog item students spend points on. A nil stock means
// unlimited availability.
type Reward struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:120;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	PointsCost  int       `gorm:"not null" json:"points_cost"`
	Stock       *int      `json:"stock"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tracked reports whether the reward enforces a finite stock.
func (r Reward) Tracked() bool {
	return r.Stock != nil
}

// Redemption reserves a reward for a user. Pending and fulfilled redemptions
// both count against the user's available balance.
type Redemption struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	RewardID    uint       `gorm:"not null" json:"reward_id"`
	Status      string     `gorm:"size:10;not null;default:pending" json:"status"`
	FulfilledBy *uint      `json:"fulfilled_by"`
	FulfilledAt *time.Time `json:"fulfilled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Reward      Reward     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"reward"`
}

const (
	// RedemptionStatusPending awaits staff fulfillment.
	RedemptionStatusPending = "pending"
	// RedemptionStatusFulfilled was handed out by staff.
	RedemptionStatusFulfilled = "fulfilled"
	// RedemptionStatusCanceled no longer counts against the balance.
	RedemptionStatusCanceled = "canceled"
)
