package models

import "time"

// CheckoutSession is the persisted cart/checkout record of one session.
type CheckoutSession struct {
	SessionKey string     `gorm:"column:session_key;primaryKey"`
	Payload    string     `gorm:"column:payload;not null"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName binds the model to checkout_sessions.
func (CheckoutSession) TableName() string { return "checkout_sessions" }
