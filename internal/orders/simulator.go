package orders

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

// Outcome thresholds drawn against a single number in [0,1).
const (
	paymentFailureBelow   = 0.05
	inventoryFailureBelow = 0.08
	unavailableBelow      = 0.10

	orderIDLength      = 9
	estimatedDelivery  = 7 * 24 * time.Hour
	estimatedDateStyle = "2006-01-02"

	// DefaultReplayTTL bounds how long an accepted idempotency key is replayed.
	DefaultReplayTTL = 24 * time.Hour
)

// Recorder stores accepted orders.
type Recorder interface {
	RecordOrder(ctx context.Context, order validation.Order, conf Confirmation) error
}

// SimulatorOptions configures the simulated order service.
type SimulatorOptions struct {
	Latency  time.Duration
	Outcomes simulate.Outcomes
	Sleeper  simulate.Sleeper
	Now      func() time.Time
	NewID    func() string
	Recorder Recorder
	Logger   *logger.Logger
	// ReplayTTL defaults to DefaultReplayTTL.
	ReplayTTL time.Duration
}

// Simulator is the receiving side of order submission. It validates the
// payload, waits, and then fails or accepts according to its outcome source.
type Simulator struct {
	latency   time.Duration
	outcomes  simulate.Outcomes
	sleeper   simulate.Sleeper
	now       func() time.Time
	newID     func() string
	recorder  Recorder
	logg      *logger.Logger
	replayTTL time.Duration

	mu       sync.Mutex
	accepted map[string]acceptedOrder
}

type acceptedOrder struct {
	fingerprint  string
	confirmation Confirmation
	expiresAt    time.Time
}

// NewSimulator builds a Simulator with random outcomes and real delays unless
// overridden.
func NewSimulator(opts SimulatorOptions) *Simulator {
	if opts.Outcomes == nil {
		opts.Outcomes = simulate.Random()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = simulate.RealSleeper()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = NewOrderID
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.ReplayTTL <= 0 {
		opts.ReplayTTL = DefaultReplayTTL
	}
	return &Simulator{
		latency:   opts.Latency,
		outcomes:  opts.Outcomes,
		sleeper:   opts.Sleeper,
		now:       opts.Now,
		newID:     opts.NewID,
		recorder:  opts.Recorder,
		logg:      opts.Logger,
		replayTTL: opts.ReplayTTL,
		accepted:  map[string]acceptedOrder{},
	}
}

// PlaceOrder implements Boundary in process.
func (s *Simulator) PlaceOrder(ctx context.Context, order OrderData, idempotencyKey string) (*Confirmation, error) {
	return s.Submit(ctx, order.Wire(), idempotencyKey)
}

// Submit processes a wire order. A repeated idempotency key with the same body
// returns the stored confirmation without placing a second order.
func (s *Simulator) Submit(ctx context.Context, order validation.Order, idempotencyKey string) (*Confirmation, error) {
	if details := validation.ValidateOrder(order); len(details) > 0 {
		s.logg.Warn(ctx, "order validation failed")
		return nil, invalidOrder(details)
	}

	var fp string
	if idempotencyKey != "" {
		var err error
		if fp, err = fingerprint(order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, InternalErrorMessage)
		}
		if conf, ok, err := s.replay(idempotencyKey, fp); err != nil || ok {
			return conf, err
		}
	}

	if err := s.sleeper.Sleep(ctx, s.latency); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, UnavailableMessage)
	}

	switch draw := s.outcomes.Float64(); {
	case draw < paymentFailureBelow:
		return nil, pkgerrors.New(pkgerrors.CodePaymentFailed, PaymentFailedMessage)
	case draw < inventoryFailureBelow:
		return nil, pkgerrors.New(pkgerrors.CodeInventoryUnavailable, InventoryFailedMessage)
	case draw < unavailableBelow:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, UnavailableMessage)
	}

	conf := Confirmation{
		OrderID:           s.newID(),
		Message:           SuccessMessage,
		EstimatedDelivery: s.now().UTC().Add(estimatedDelivery).Format(estimatedDateStyle),
	}
	if s.recorder != nil {
		if err := s.recorder.RecordOrder(ctx, order, conf); err != nil {
			s.logg.Error(ctx, "record order failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, InternalErrorMessage)
		}
	}
	if idempotencyKey != "" {
		now := s.now()
		s.mu.Lock()
		s.pruneLocked(now)
		s.accepted[idempotencyKey] = acceptedOrder{fingerprint: fp, confirmation: conf, expiresAt: now.Add(s.replayTTL)}
		s.mu.Unlock()
	}
	s.logg.Info(s.logg.WithOrderID(ctx, conf.OrderID), "order placed")
	return &conf, nil
}

func (s *Simulator) replay(key, fp string) (*Confirmation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior, ok := s.accepted[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(prior.expiresAt) {
		delete(s.accepted, key)
		return nil, false, nil
	}
	if prior.fingerprint != fp {
		return nil, true, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different order")
	}
	conf := prior.confirmation
	return &conf, true, nil
}

func (s *Simulator) pruneLocked(now time.Time) {
	for key, prior := range s.accepted {
		if !now.Before(prior.expiresAt) {
			delete(s.accepted, key)
		}
	}
}

// Replays reports how many accepted keys are still held for replay.
func (s *Simulator) Replays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepted)
}

// NewOrderID returns a 9 character upper-case base-36 identifier.
func NewOrderID() string {
	id := uuid.New()
	text := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(text) < orderIDLength {
		text = strings.Repeat("0", orderIDLength-len(text)) + text
	}
	return text[len(text)-orderIDLength:]
}
