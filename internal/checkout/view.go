package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	"github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

// View is a read-only rendering of a session's checkout.
type View struct {
	Step         enums.CheckoutStep   `json:"step"`
	StepName     string               `json:"stepName"`
	Exited       bool                 `json:"exited"`
	User         *cart.User           `json:"user"`
	Information  InformationView      `json:"information"`
	Delivery     DeliveryView         `json:"delivery"`
	Summary      SummaryView          `json:"summary"`
	Confirmation *orders.Confirmation `json:"confirmation,omitempty"`
}

// Failed reports whether a step submission or the order attempt failed.
func (v View) Failed() bool {
	return v.Information.SubmitError != "" || v.Delivery.SubmitError != "" || v.Summary.OrderError != ""
}

// InformationView is the state of the customer information form.
type InformationView struct {
	Form        validation.CustomerInfo `json:"form"`
	FieldErrors validation.FieldErrors  `json:"fieldErrors,omitempty"`
	SubmitError string                  `json:"submitError,omitempty"`
	Submitting  bool                    `json:"submitting"`
}

// DeliveryView is the state of the delivery selection.
type DeliveryView struct {
	CatalogStatus enums.CatalogStatus      `json:"catalogStatus"`
	CatalogError  string                   `json:"catalogError,omitempty"`
	Cities        []catalog.City           `json:"cities"`
	CityID        *int                     `json:"cityId"`
	DeliveryType  *enums.DeliveryType      `json:"deliveryType"`
	Options       []catalog.DeliveryOption `json:"options"`
	FieldErrors   validation.FieldErrors   `json:"fieldErrors,omitempty"`
	SubmitError   string                   `json:"submitError,omitempty"`
	Submitting    bool                     `json:"submitting"`
	CanAdvance    bool                     `json:"canAdvance"`
}

// SummaryView is the review of the order about to be placed.
type SummaryView struct {
	Customer       validation.CustomerInfo `json:"customer"`
	Items          []cart.CartItem         `json:"items"`
	CityName       string                  `json:"cityName,omitempty"`
	DeliveryLabel  string                  `json:"deliveryLabel"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	DeliveryPrice  decimal.Decimal         `json:"deliveryPrice"`
	Total          decimal.Decimal         `json:"total"`
	Consent        bool                    `json:"consent"`
	Placing        bool                    `json:"placing"`
	OrderError     string                  `json:"orderError,omitempty"`
	OrderErrorCode pkgerrors.Code          `json:"orderErrorCode,omitempty"`
	Retryable      bool                    `json:"retryable,omitempty"`
}
