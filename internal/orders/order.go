package orders

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

// CustomerInfo identifies the buyer.
type CustomerInfo struct {
	FirstName string
	LastName  string
	Email     string
}

// DeliverySelection is the resolved city and speed of an order.
type DeliverySelection struct {
	CityID       int
	DeliveryType enums.DeliveryType
	Price        decimal.Decimal
}

// OrderData is the immutable payload assembled at submission time.
type OrderData struct {
	CustomerInfo CustomerInfo
	Delivery     DeliverySelection
	Items        []cart.CartItem
	Subtotal     decimal.Decimal
	Total        decimal.Decimal
}

// Confirmation is returned when an order is accepted.
type Confirmation struct {
	OrderID           string `json:"orderId"`
	Message           string `json:"message"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// BuildOrder assembles an order from the current state and catalog. The total
// is the item subtotal plus the delivery price of the selected city and type.
func BuildOrder(state cart.State, cities []catalog.City) (OrderData, error) {
	if len(state.Items) == 0 {
		return OrderData{}, pkgerrors.New(pkgerrors.CodeStateConflict, validation.MsgEmptyCart)
	}
	data := state.CheckoutData
	if data.CityID == nil || data.DeliveryType == nil {
		return OrderData{}, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery selection incomplete")
	}
	city, ok := catalog.Find(cities, *data.CityID)
	if !ok {
		return OrderData{}, pkgerrors.New(pkgerrors.CodeStateConflict, validation.MsgCityUnavailable)
	}
	price, ok := city.PriceFor(*data.DeliveryType)
	if !ok {
		return OrderData{}, pkgerrors.New(pkgerrors.CodeStateConflict, validation.MsgDeliveryTypeForbidden)
	}

	items := make([]cart.CartItem, len(state.Items))
	copy(items, state.Items)
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return OrderData{
		CustomerInfo: CustomerInfo{
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Email:     data.Email,
		},
		Delivery: DeliverySelection{
			CityID:       city.ID,
			DeliveryType: *data.DeliveryType,
			Price:        price,
		},
		Items:    items,
		Subtotal: subtotal,
		Total:    subtotal.Add(price),
	}, nil
}

// Wire converts the order into the JSON contract of the order service.
func (o OrderData) Wire() validation.Order {
	items := make([]validation.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, validation.OrderItem{
			ID:           item.ID,
			Name:         item.Name,
			Manufacturer: item.Manufacturer,
			Price:        item.Price.InexactFloat64(),
			Quantity:     item.Quantity,
		})
	}
	return validation.Order{
		CustomerInfo: validation.CustomerInfo{
			FirstName: o.CustomerInfo.FirstName,
			LastName:  o.CustomerInfo.LastName,
			Email:     o.CustomerInfo.Email,
		},
		Delivery: validation.Delivery{
			CityID:       o.Delivery.CityID,
			DeliveryType: o.Delivery.DeliveryType.String(),
		},
		Items: items,
		Total: o.Total.InexactFloat64(),
	}
}

// Fingerprint hashes the wire payload; equal orders share a fingerprint.
func (o OrderData) Fingerprint() (string, error) {
	return fingerprint(o.Wire())
}

func fingerprint(order validation.Order) (string, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
