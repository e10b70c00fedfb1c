package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

// OrdersPath is the route of the order service.
const OrdersPath = "/api/orders"

// IdempotencyHeader carries the per-attempt key.
const IdempotencyHeader = "Idempotency-Key"

// HTTPClient submits orders to a remote order service over the JSON contract.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient targets baseURL. The default client has no timeout so an
// order is never abandoned mid-flight.
func NewHTTPClient(baseURL string, client *http.Client) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("orders base url required")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{endpoint: baseURL + OrdersPath, client: client}, nil
}

// PlaceOrder implements Boundary.
func (c *HTTPClient) PlaceOrder(ctx context.Context, order OrderData, idempotencyKey string) (*Confirmation, error) {
	body, err := json.Marshal(order.Wire())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, InternalErrorMessage)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, InternalErrorMessage)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, UnavailableMessage)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, UnavailableMessage)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var success SuccessResponse
		if err := json.Unmarshal(raw, &success); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, InternalErrorMessage)
		}
		if !success.Success || success.OrderID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, InternalErrorMessage)
		}
		return &Confirmation{
			OrderID:           success.OrderID,
			Message:           success.Message,
			EstimatedDelivery: success.EstimatedDelivery,
		}, nil
	}
	return nil, failureFromResponse(resp.StatusCode, raw)
}

type remoteFailure struct {
	Error   json.RawMessage         `json:"error"`
	Details []validation.FieldError `json:"details"`
	Code    pkgerrors.Code          `json:"code"`
}

func failureFromResponse(status int, raw []byte) error {
	var body remoteFailure
	_ = json.Unmarshal(raw, &body)

	var message string
	if len(body.Error) > 0 {
		if err := json.Unmarshal(body.Error, &message); err != nil {
			var envelope struct {
				Code    pkgerrors.Code `json:"code"`
				Message string         `json:"message"`
			}
			_ = json.Unmarshal(body.Error, &envelope)
			message = envelope.Message
			if body.Code == "" {
				body.Code = envelope.Code
			}
		}
	}

	switch {
	case status == http.StatusBadRequest && len(body.Details) > 0:
		return invalidOrder(body.Details)
	case status == http.StatusBadRequest:
		return pkgerrors.New(pkgerrors.CodePaymentFailed, orDefault(message, PaymentFailedMessage))
	case status == http.StatusConflict && body.Code == pkgerrors.CodeIdempotency:
		return pkgerrors.New(pkgerrors.CodeIdempotency, orDefault(message, "idempotency key reused with a different order"))
	case status == http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeInventoryUnavailable, orDefault(message, InventoryFailedMessage))
	case status == http.StatusServiceUnavailable:
		return pkgerrors.New(pkgerrors.CodeDependency, orDefault(message, UnavailableMessage))
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, orDefault(message, InternalErrorMessage)).
			WithDetails(map[string]any{"status": fmt.Sprint(status)})
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
