package checkout

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

// Messages reported when the server-side step check rejects a submission.
const (
	InformationCheckFailedMessage = "Server validation failed. Please check your information and try again."
	DeliveryCheckFailedMessage    = "Delivery validation failed. Please try a different option."
)

// StepVerifier performs the server-side check that precedes a forward step
// transition.
type StepVerifier interface {
	Verify(ctx context.Context) error
}

// VerifierOptions configures a SimulatedVerifier.
type VerifierOptions struct {
	Latency     time.Duration
	FailureRate float64
	Message     string
	Outcomes    simulate.Outcomes
	Sleeper     simulate.Sleeper
}

// SimulatedVerifier waits and then rejects a fraction of submissions.
type SimulatedVerifier struct {
	latency     time.Duration
	failureRate float64
	message     string
	outcomes    simulate.Outcomes
	sleeper     simulate.Sleeper
}

// NewSimulatedVerifier builds a SimulatedVerifier with random outcomes and real
// delays unless overridden.
func NewSimulatedVerifier(opts VerifierOptions) *SimulatedVerifier {
	if opts.Outcomes == nil {
		opts.Outcomes = simulate.Random()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = simulate.RealSleeper()
	}
	return &SimulatedVerifier{
		latency:     opts.Latency,
		failureRate: opts.FailureRate,
		message:     opts.Message,
		outcomes:    opts.Outcomes,
		sleeper:     opts.Sleeper,
	}
}

// Verify implements StepVerifier.
func (v *SimulatedVerifier) Verify(ctx context.Context) error {
	if err := v.sleeper.Sleep(ctx, v.latency); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, v.message)
	}
	if simulate.Fails(v.outcomes, v.failureRate) {
		return pkgerrors.New(pkgerrors.CodeValidation, v.message)
	}
	return nil
}
