package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	"github.com/angelmondragon/checkout-flow/pkg/db/models"
)

// GormRecorder writes accepted orders to placed_orders.
type GormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder binds the recorder to a database handle.
func NewGormRecorder(db *gorm.DB) (*GormRecorder, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	return &GormRecorder{db: db}, nil
}

// RecordOrder implements Recorder.
func (r *GormRecorder) RecordOrder(ctx context.Context, order validation.Order, conf Confirmation) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	row := models.PlacedOrder{
		OrderID:           conf.OrderID,
		Email:             order.CustomerInfo.Email,
		CityID:            order.Delivery.CityID,
		DeliveryType:      order.Delivery.DeliveryType,
		Total:             decimal.NewFromFloat(order.Total).Round(2),
		Payload:           string(payload),
		EstimatedDelivery: conf.EstimatedDelivery,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert placed order: %w", err)
	}
	return nil
}

// FindOrder loads a recorded order by id.
func (r *GormRecorder) FindOrder(ctx context.Context, orderID string) (*models.PlacedOrder, error) {
	var row models.PlacedOrder
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
