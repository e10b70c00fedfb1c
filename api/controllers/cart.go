package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-flow/api/responses"
	"github.com/angelmondragon/checkout-flow/api/validators"
	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

type cartResponse struct {
	Items      []cart.CartItem `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ItemCount  int             `json:"itemCount"`
}

type addItemRequest struct {
	ID           int             `json:"id" validate:"required,min=1"`
	Name         string          `json:"name" validate:"required,max=200"`
	Manufacturer string          `json:"manufacturer" validate:"max=200"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl" validate:"omitempty,url"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func newCartResponse(store *cart.Store) cartResponse {
	items := store.Items()
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return cartResponse{Items: items, TotalPrice: store.TotalPrice(), ItemCount: count}
}

// CartGet returns the session's cart.
func CartGet(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl.Store()))
	}
}

// CartClear empties the cart. Checkout data is kept.
func CartClear(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ctrl.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl.Store()))
	}
}

// CartAddItem adds one unit of a product, incrementing an existing line.
func CartAddItem(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !body.Price.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"price": "must be greater than 0"}))
			return
		}

		product := cart.Product{
			ID:           body.ID,
			Name:         validators.SanitizeString(body.Name, 200),
			Manufacturer: validators.SanitizeString(body.Manufacturer, 200),
			Price:        body.Price,
			ImageURL:     body.ImageURL,
		}
		if err := ctrl.AddItem(r.Context(), product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(ctrl.Store()))
	}
}

// CartUpdateItem sets a line's quantity; below 1 removes the line.
func CartUpdateItem(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathInt(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ctrl.UpdateQuantity(r.Context(), itemID, *body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl.Store()))
	}
}

// CartRemoveItem drops a line. Unknown ids are a no-op.
func CartRemoveItem(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathInt(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ctrl.RemoveItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl.Store()))
	}
}
