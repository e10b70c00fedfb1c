package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/checkout-flow/api/responses"
	"github.com/angelmondragon/checkout-flow/api/validators"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

type editFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=firstName lastName email"`
	Value string `json:"value"`
}

// informationRequest carries no validation tags; the controller reports field
// errors in the view instead of rejecting the request.
type informationRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type selectCityRequest struct {
	CityID int `json:"cityId" validate:"required"`
}

type selectDeliveryTypeRequest struct {
	DeliveryType string `json:"deliveryType" validate:"required"`
}

type consentRequest struct {
	Agreed *bool `json:"agreed" validate:"required"`
}

type viewAction func(ctx context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error)

// checkoutAction resolves the session controller, runs action and renders the
// resulting view. Views carrying a failure are marked no-store.
func checkoutAction(registry *checkout.Registry, logg *logger.Logger, action viewAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := action(r.Context(), ctrl, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if view.Failed() {
			// A failed attempt must stay retryable under the same Idempotency-Key.
			w.Header().Set("Cache-Control", "no-store")
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutView renders the current checkout state.
func CheckoutView(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(_ context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		return ctrl.View(), nil
	})
}

// CheckoutStart enters the checkout.
func CheckoutStart(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		return ctrl.Start(ctx)
	})
}

// CheckoutEditInformation validates one Information field as it is typed.
func CheckoutEditInformation(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(_ context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error) {
		var body editFieldRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return checkout.View{}, err
		}
		return ctrl.EditInformation(body.Field, body.Value)
	})
}

// CheckoutSubmitInformation submits the Information step. An empty body
// submits the current draft.
func CheckoutSubmitInformation(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error) {
		var body informationRequest
		present, err := validators.DecodeOptionalJSONBody(r, &body)
		if err != nil {
			return checkout.View{}, err
		}
		var form *validation.CustomerInfo
		if present {
			form = &validation.CustomerInfo{
				FirstName: strings.TrimSpace(body.FirstName),
				LastName:  strings.TrimSpace(body.LastName),
				Email:     strings.TrimSpace(body.Email),
			}
		}
		return ctrl.SubmitInformation(ctx, form)
	})
}

// CheckoutBack moves one step back.
func CheckoutBack(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		return ctrl.Back(ctx)
	})
}

// CheckoutReloadCatalog retries the city catalog fetch.
func CheckoutReloadCatalog(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		if err := ctrl.LoadCatalog(ctx); err != nil {
			return checkout.View{}, err
		}
		return ctrl.View(), nil
	})
}

// CheckoutSelectCity chooses the delivery city.
func CheckoutSelectCity(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(_ context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error) {
		var body selectCityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return checkout.View{}, err
		}
		return ctrl.SelectCity(body.CityID)
	})
}

// CheckoutSelectDeliveryType chooses the delivery speed.
func CheckoutSelectDeliveryType(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(_ context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error) {
		var body selectDeliveryTypeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return checkout.View{}, err
		}
		return ctrl.SelectDeliveryType(enums.DeliveryType(strings.TrimSpace(body.DeliveryType)))
	})
}

// CheckoutSubmitDelivery submits the Delivery step.
func CheckoutSubmitDelivery(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		return ctrl.SubmitDelivery(ctx)
	})
}

// CheckoutSetConsent records the Summary acknowledgement.
func CheckoutSetConsent(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(_ context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error) {
		var body consentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return checkout.View{}, err
		}
		return ctrl.SetConsent(*body.Agreed)
	})
}

// CheckoutPlaceOrder submits the order. Order failures are part of the view,
// so the response is 200 unless a guard rejected the call.
func CheckoutPlaceOrder(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		return ctrl.PlaceOrder(ctx)
	})
}

// CheckoutDismissError clears a step's submission banner.
func CheckoutDismissError(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(_ context.Context, ctrl *checkout.Controller, r *http.Request) (checkout.View, error) {
		step, err := enums.ParseCheckoutStep(chi.URLParam(r, "step"))
		if err != nil {
			return checkout.View{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown checkout step")
		}
		return ctrl.DismissError(step)
	})
}

// CheckoutReset discards checkout progress. Items are kept.
func CheckoutReset(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(registry, logg, func(ctx context.Context, ctrl *checkout.Controller, _ *http.Request) (checkout.View, error) {
		return ctrl.Reset(ctx)
	})
}
