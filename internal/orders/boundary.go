package orders

import (
	"context"

	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

// Customer-facing outcome messages of the order service.
const (
	SuccessMessage         = "Order placed successfully!"
	InvalidOrderMessage    = "Invalid order data"
	PaymentFailedMessage   = "Payment processing failed. Please check your payment method and try again."
	InventoryFailedMessage = "Inventory check failed. Some items may no longer be available."
	UnavailableMessage     = "Service temporarily unavailable. Please try again in a few moments."
	InternalErrorMessage   = "Internal server error. Please try again later."
)

// Boundary submits orders. Failures are *errors.Error values whose code names
// the category: PAYMENT_FAILED, INVENTORY_UNAVAILABLE, DEPENDENCY_ERROR,
// INTERNAL_ERROR or VALIDATION_ERROR.
type Boundary interface {
	PlaceOrder(ctx context.Context, order OrderData, idempotencyKey string) (*Confirmation, error)
}

// SuccessResponse is the 2xx body of POST /api/orders.
type SuccessResponse struct {
	Success           bool   `json:"success"`
	OrderID           string `json:"orderId"`
	Message           string `json:"message"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// ErrorResponse is the non-2xx body of POST /api/orders.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
	// Code is set only where the status alone is ambiguous (key reuse shares 409
	// with inventory failures).
	Code pkgerrors.Code `json:"code,omitempty"`
}

// NewSuccessResponse wraps a confirmation in the wire shape.
func NewSuccessResponse(c Confirmation) SuccessResponse {
	return SuccessResponse{
		Success:           true,
		OrderID:           c.OrderID,
		Message:           c.Message,
		EstimatedDelivery: c.EstimatedDelivery,
	}
}

// NewErrorResponse renders a boundary failure as the wire body and status.
func NewErrorResponse(err error) (int, ErrorResponse) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return pkgerrors.MetadataFor(pkgerrors.CodeInternal).HTTPStatus, ErrorResponse{Error: InternalErrorMessage}
	}
	resp := ErrorResponse{Error: typed.Message()}
	if details, ok := typed.Details().([]validation.FieldError); ok {
		resp.Details = details
	}
	if resp.Error == "" {
		resp.Error = InternalErrorMessage
	}
	if typed.Code() == pkgerrors.CodeIdempotency {
		resp.Code = typed.Code()
	}
	return pkgerrors.MetadataFor(typed.Code()).HTTPStatus, resp
}

func invalidOrder(details []validation.FieldError) error {
	return pkgerrors.New(pkgerrors.CodeValidation, InvalidOrderMessage).WithDetails(details)
}
