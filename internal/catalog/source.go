package catalog

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

// LoadFailureMessage is surfaced to the customer when the catalog cannot be fetched.
const LoadFailureMessage = "Failed to load cities. Please check your connection and try again."

// Fetcher loads the current city catalog.
type Fetcher interface {
	FetchCities(ctx context.Context) ([]City, error)
}

// SourceOptions configures the simulated catalog source.
type SourceOptions struct {
	Cities      []City
	Latency     time.Duration
	FailureRate float64
	Outcomes    simulate.Outcomes
	Sleeper     simulate.Sleeper
}

// SimulatedSource serves a fixed catalog with injected latency and failures.
type SimulatedSource struct {
	cities      []City
	latency     time.Duration
	failureRate float64
	outcomes    simulate.Outcomes
	sleeper     simulate.Sleeper
}

// NewSimulatedSource builds a SimulatedSource, defaulting to DefaultCities.
func NewSimulatedSource(opts SourceOptions) *SimulatedSource {
	if opts.Cities == nil {
		opts.Cities = DefaultCities()
	}
	if opts.Outcomes == nil {
		opts.Outcomes = simulate.Random()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = simulate.RealSleeper()
	}
	return &SimulatedSource{
		cities:      opts.Cities,
		latency:     opts.Latency,
		failureRate: opts.FailureRate,
		outcomes:    opts.Outcomes,
		sleeper:     opts.Sleeper,
	}
}

// FetchCities returns a copy of the catalog in its stored order.
func (s *SimulatedSource) FetchCities(ctx context.Context) ([]City, error) {
	if err := s.sleeper.Sleep(ctx, s.latency); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, LoadFailureMessage)
	}
	if simulate.Fails(s.outcomes, s.failureRate) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, LoadFailureMessage)
	}
	out := make([]City, len(s.cities))
	copy(out, s.cities)
	return out, nil
}
