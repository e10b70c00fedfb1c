package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlacedOrder is an order accepted by the order service.
type PlacedOrder struct {
	OrderID           string          `gorm:"column:order_id;primaryKey"`
	Email             string          `gorm:"column:email;not null"`
	CityID            int             `gorm:"column:city_id;not null"`
	DeliveryType      string          `gorm:"column:delivery_type;not null"`
	Total             decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Payload           string          `gorm:"column:payload;not null"`
	EstimatedDelivery string          `gorm:"column:estimated_delivery;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName binds the model to placed_orders.
func (PlacedOrder) TableName() string { return "placed_orders" }
