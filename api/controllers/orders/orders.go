package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/angelmondragon/checkout-flow/api/middleware"
	"github.com/angelmondragon/checkout-flow/api/responses"
	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	internalorders "github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

const maxOrderBodyBytes = 1 << 20

// Submit serves POST /api/orders. Its bodies follow the order service
// contract rather than the /api/v1 envelope.
func Submit(sim *internalorders.Simulator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sim == nil {
			responses.WriteJSON(w, http.StatusServiceUnavailable, internalorders.ErrorResponse{Error: internalorders.UnavailableMessage})
			return
		}

		var order validation.Order
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOrderBodyBytes))
		if err := dec.Decode(&order); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				responses.WriteJSON(w, http.StatusBadRequest, internalorders.ErrorResponse{
					Error: internalorders.InvalidOrderMessage,
					Details: []validation.FieldError{{
						Field:   typeErr.Field,
						Message: "has the wrong type",
					}},
				})
				return
			}
			if logg != nil {
				logg.Warn(ctx, "orders.body_unreadable")
			}
			responses.WriteJSON(w, http.StatusInternalServerError, internalorders.ErrorResponse{Error: internalorders.InternalErrorMessage})
			return
		}

		key := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader))
		conf, err := sim.Submit(ctx, order, key)
		if err != nil {
			status, body := internalorders.NewErrorResponse(err)
			responses.WriteJSON(w, status, body)
			return
		}
		responses.WriteJSON(w, http.StatusOK, internalorders.NewSuccessResponse(*conf))
	}
}

type orderRecord struct {
	OrderID           string          `json:"orderId"`
	Email             string          `json:"email"`
	CityID            int             `json:"cityId"`
	DeliveryType      string          `json:"deliveryType"`
	Total             float64         `json:"total"`
	EstimatedDelivery string          `json:"estimatedDelivery"`
	Order             json.RawMessage `json:"order"`
	CreatedAt         string          `json:"createdAt"`
}

// Get serves GET /api/orders/{orderId} from the order recorder.
func Get(recorder *internalorders.GormRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if recorder == nil {
			responses.WriteJSON(w, http.StatusNotFound, internalorders.ErrorResponse{Error: "Order not found"})
			return
		}
		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteJSON(w, http.StatusBadRequest, internalorders.ErrorResponse{Error: "orderId is required"})
			return
		}
		row, err := recorder.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteJSON(w, http.StatusNotFound, internalorders.ErrorResponse{Error: "Order not found"})
				return
			}
			if logg != nil {
				logg.Error(ctx, "orders.lookup_failed", err)
			}
			responses.WriteJSON(w, http.StatusInternalServerError, internalorders.ErrorResponse{Error: internalorders.InternalErrorMessage})
			return
		}
		total, _ := row.Total.Float64()
		responses.WriteJSON(w, http.StatusOK, orderRecord{
			OrderID:           row.OrderID,
			Email:             row.Email,
			CityID:            row.CityID,
			DeliveryType:      row.DeliveryType,
			Total:             total,
			EstimatedDelivery: row.EstimatedDelivery,
			Order:             json.RawMessage(row.Payload),
			CreatedAt:         row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}
