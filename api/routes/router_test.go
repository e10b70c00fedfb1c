package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	"github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/internal/users"
	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/metrics"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:         "test",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "checkout-flow", ExpirationMinutes: 60},
		RateLimit: config.RateLimitConfig{
			LoginIPLimit:    20,
			LoginEmailLimit: 5,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	source := catalog.NewSimulatedSource(catalog.SourceOptions{Outcomes: simulate.Fixed(0.5), Sleeper: simulate.NoSleep{}})
	sim := orders.NewSimulator(orders.SimulatorOptions{Outcomes: simulate.Fixed(0.5), Sleeper: simulate.NoSleep{}})
	registry, err := checkout.NewRegistry(checkout.SessionDeps{
		Persister: cart.NewMemoryPersister(),
		SeedItems: []cart.CartItem{{
			ID: 1, Name: "Wireless Headphones", Manufacturer: "SoundMax",
			Price: decimal.RequireFromString("129.00"), Quantity: 1,
		}},
		Catalog:          source,
		Orders:           sim,
		InfoVerifier:     checkout.NewSimulatedVerifier(checkout.VerifierOptions{Sleeper: simulate.NoSleep{}}),
		DeliveryVerifier: checkout.NewSimulatedVerifier(checkout.VerifierOptions{Sleeper: simulate.NoSleep{}}),
		Metrics:          metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)
	directory := users.NewDirectory(users.Options{Outcomes: simulate.Fixed(0.9), Sleeper: simulate.NoSleep{}})

	return NewRouter(testConfig(), logger.Nop(), nil, nil, reg, registry, directory, source, sim, nil)
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve(h, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionFlowThroughRouter(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/api/v1/checkout", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodPost, "/api/v1/session", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	token := sess.Data.Token

	rec = serve(h, http.MethodPost, "/api/v1/checkout/start", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(h, http.MethodPost, "/api/v1/checkout/information", token,
		`{"firstName":"John","lastName":"Doe","email":"john.doe@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"stepName":"delivery"`)

	rec = serve(h, http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"itemCount":1`)

	rec = serve(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `checkout_step_transitions_total{from="information",to="delivery"} 1`)
}

func TestOrderServiceRoutes(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := serve(h, http.MethodPost, "/api/orders", "", `{
		"customerInfo": {"firstName": "John", "lastName": "Doe", "email": "john.doe@example.com"},
		"delivery": {"cityId": 4, "deliveryType": "slow"},
		"items": [{"id": 1, "name": "Wireless Headphones", "manufacturer": "SoundMax", "price": 129, "quantity": 2}],
		"total": 264
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"success":true`)

	rec = serve(h, http.MethodGet, "/api/orders/ANYTHING1", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout/order", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Idempotency-Key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)
	rec := serve(h, http.MethodGet, "/api/v1/nothing-here", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
