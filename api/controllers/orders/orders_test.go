package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	internalorders "github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/pkg/config"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/migrate"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

const validOrder = `{
	"customerInfo": {"firstName": "John", "lastName": "Doe", "email": "john.doe@example.com"},
	"delivery": {"cityId": 1, "deliveryType": "fast"},
	"items": [{"id": 1, "name": "Wireless Headphones", "manufacturer": "SoundMax", "price": 129, "quantity": 1}],
	"total": 144
}`

func newRecorder(t *testing.T) *internalorders.GormRecorder {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.Run(context.Background(), sqlDB, config.DBDriverSQLite, "up"))

	rec, err := internalorders.NewGormRecorder(conn)
	require.NoError(t, err)
	return rec
}

func newRouter(outcomes simulate.Outcomes, rec *internalorders.GormRecorder) http.Handler {
	opts := internalorders.SimulatorOptions{
		Outcomes: outcomes,
		Sleeper:  simulate.NoSleep{},
		Now:      func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) },
		NewID:    func() string { return "K3P9Z2M1Q" },
	}
	if rec != nil {
		opts.Recorder = rec
	}
	sim := internalorders.NewSimulator(opts)

	r := chi.NewRouter()
	r.Post("/api/orders", Submit(sim, logger.Nop()))
	r.Get("/api/orders/{orderId}", Get(rec, logger.Nop()))
	return r
}

func post(h http.Handler, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitAcceptsValidOrder(t *testing.T) {
	t.Parallel()
	h := newRouter(simulate.Fixed(0.5), nil)

	rec := post(h, validOrder, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body internalorders.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "K3P9Z2M1Q", body.OrderID)
	require.Equal(t, internalorders.SuccessMessage, body.Message)
	require.Equal(t, "2026-10-24", body.EstimatedDelivery)
}

func TestSubmitMapsFailureCategories(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		draw   float64
		status int
		msg    string
	}{
		{"payment", 0.01, http.StatusBadRequest, internalorders.PaymentFailedMessage},
		{"inventory", 0.06, http.StatusConflict, internalorders.InventoryFailedMessage},
		{"unavailable", 0.09, http.StatusServiceUnavailable, internalorders.UnavailableMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := post(newRouter(simulate.Fixed(tc.draw), nil), validOrder, "")
			require.Equal(t, tc.status, rec.Code)

			var body internalorders.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.msg, body.Error)
		})
	}
}

func TestSubmitRejectsInvalidOrder(t *testing.T) {
	t.Parallel()
	h := newRouter(simulate.Fixed(0.5), nil)
	body := strings.Replace(validOrder, `"total": 144`, `"total": 0`, 1)

	rec := post(h, body, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp internalorders.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, internalorders.InvalidOrderMessage, resp.Error)
	require.NotEmpty(t, resp.Details)
}

func TestSubmitBodyErrors(t *testing.T) {
	t.Parallel()
	h := newRouter(simulate.Fixed(0.5), nil)

	rec := post(h, `{"customerInfo":`, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal server error. Please try again later."}`, rec.Body.String())

	rec = post(h, `{"total":"lots"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp internalorders.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, internalorders.InvalidOrderMessage, resp.Error)
	require.Len(t, resp.Details, 1)
	require.Equal(t, "total", resp.Details[0].Field)
}

func TestSubmitReplaysIdempotentRetry(t *testing.T) {
	t.Parallel()
	h := newRouter(simulate.NewSequence(0.5, 0.01), nil)

	first := post(h, validOrder, "order-key")
	require.Equal(t, http.StatusOK, first.Code)
	again := post(h, validOrder, "order-key")
	require.Equal(t, http.StatusOK, again.Code)
	require.JSONEq(t, first.Body.String(), again.Body.String())
}

func TestSubmitRejectsKeyReuseWithDifferentOrder(t *testing.T) {
	t.Parallel()
	h := newRouter(simulate.Fixed(0.5), nil)

	require.Equal(t, http.StatusOK, post(h, validOrder, "order-key").Code)
	changed := strings.Replace(validOrder, "john.doe@example.com", "jane.smith@example.com", 1)
	rec := post(h, changed, "order-key")
	require.Equal(t, http.StatusConflict, rec.Code)
	var resp internalorders.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, pkgerrors.CodeIdempotency, resp.Code)

	inventory := post(newRouter(simulate.Fixed(0.06), nil), validOrder, "")
	require.Equal(t, http.StatusConflict, inventory.Code)
	require.NotContains(t, inventory.Body.String(), `"code"`)
}

func TestGetRecordedOrder(t *testing.T) {
	t.Parallel()
	h := newRouter(simulate.Fixed(0.5), newRecorder(t))

	require.Equal(t, http.StatusOK, post(h, validOrder, "").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/K3P9Z2M1Q", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body orderRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "K3P9Z2M1Q", body.OrderID)
	require.Equal(t, "john.doe@example.com", body.Email)
	require.Equal(t, 144.0, body.Total)
	require.Equal(t, "fast", body.DeliveryType)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/MISSING00", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String())
}
