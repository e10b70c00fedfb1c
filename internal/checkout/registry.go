package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/metrics"
)

// SessionDeps are shared by every session controller built by a Registry.
type SessionDeps struct {
	Persister        cart.Persister
	SeedItems        []cart.CartItem
	Catalog          catalog.Fetcher
	Orders           orders.Boundary
	InfoVerifier     StepVerifier
	DeliveryVerifier StepVerifier
	Metrics          *metrics.CheckoutMetrics
	Logger           *logger.Logger
	ResetAfterOrder  bool
	// IdleTimeout evicts controllers unused for this long. Zero keeps them.
	IdleTimeout time.Duration
	Now         func() time.Time
}

// sweeper is implemented by persisters that expire records in process.
type sweeper interface {
	Sweep() int
}

// Registry maps session ids to their controllers, opening the persisted store
// on first use.
type Registry struct {
	deps SessionDeps

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewRegistry validates deps and returns an empty Registry.
func NewRegistry(deps SessionDeps) (*Registry, error) {
	if deps.Persister == nil {
		return nil, fmt.Errorf("persister required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog fetcher required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order boundary required")
	}
	if deps.InfoVerifier == nil || deps.DeliveryVerifier == nil {
		return nil, fmt.Errorf("step verifiers required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{deps: deps, sessions: map[string]*liveSession{}}, nil
}

// Get returns the controller for sessionID, creating it when needed.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Controller, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if live, ok := r.sessions[sessionID]; ok {
		live.lastSeen = r.deps.Now()
		return live.ctrl, nil
	}

	store, err := cart.Open(ctx, r.deps.Persister, sessionID, cart.Options{SeedItems: r.deps.SeedItems})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	ctrl, err := NewController(Deps{
		Store:            store,
		Catalog:          r.deps.Catalog,
		Orders:           r.deps.Orders,
		InfoVerifier:     r.deps.InfoVerifier,
		DeliveryVerifier: r.deps.DeliveryVerifier,
		Metrics:          r.deps.Metrics,
		Logger:           r.deps.Logger,
		ResetAfterOrder:  r.deps.ResetAfterOrder,
	})
	if err != nil {
		return nil, err
	}
	r.sessions[sessionID] = &liveSession{ctrl: ctrl, lastSeen: r.deps.Now()}
	r.deps.Logger.Debug(r.deps.Logger.WithSessionID(ctx, sessionID), "checkout session opened")
	return ctrl, nil
}

// Forget drops the in-memory controller; the persisted record is kept.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Evict drops controllers idle past IdleTimeout, skipping any with an
// operation in flight, and sweeps expired records from the persister.
func (r *Registry) Evict(ctx context.Context) int {
	if r.deps.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.deps.Now().Add(-r.deps.IdleTimeout)
	r.mu.Lock()
	evicted := 0
	for id, live := range r.sessions {
		if live.lastSeen.After(cutoff) || live.ctrl.Busy() {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	r.mu.Unlock()

	swept := 0
	if sw, ok := r.deps.Persister.(sweeper); ok {
		swept = sw.Sweep()
	}
	if evicted > 0 || swept > 0 {
		r.deps.Logger.Debug(r.deps.Logger.WithFields(ctx, map[string]any{"evicted": evicted, "swept": swept}), "idle checkout sessions evicted")
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.deps.IdleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict(ctx)
		}
	}
}

// Len reports the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
