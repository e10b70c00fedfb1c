// Package simulate provides the latency and failure injection used by the mocked
// catalog, step checks and order boundary. Production wiring draws from math/rand;
// tests plug in deterministic sequences and a no-op sleeper.
package simulate

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Outcomes yields values in [0,1) that callers compare against failure thresholds.
type Outcomes interface {
	Float64() float64
}

type randomOutcomes struct{}

// Random returns an Outcomes backed by the shared math/rand source.
func Random() Outcomes {
	return randomOutcomes{}
}

func (randomOutcomes) Float64() float64 {
	return rand.Float64()
}

// Fixed always yields v. Fixed(1) never triggers a failure branch.
type Fixed float64

func (f Fixed) Float64() float64 {
	return float64(f)
}

// Sequence replays values in order and wraps around once exhausted.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence builds a deterministic Outcomes from the given draws.
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		values = []float64{1}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws reports how many values have been consumed.
func (s *Sequence) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Fails draws one outcome and reports whether it falls under rate.
func Fails(o Outcomes, rate float64) bool {
	if o == nil || rate <= 0 {
		return false
	}
	return o.Float64() < rate
}

// Sleeper waits out simulated latency.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

// RealSleeper blocks for the full duration unless ctx ends first.
func RealSleeper() Sleeper {
	return realSleeper{}
}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoSleep skips latency entirely.
type NoSleep struct{}

func (NoSleep) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
