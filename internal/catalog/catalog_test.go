package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/checkout-flow/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

func TestPriceFor(t *testing.T) {
	la, ok := Find(DefaultCities(), 2)
	require.True(t, ok)

	fast, ok := la.PriceFor(enums.DeliveryTypeFast)
	require.True(t, ok)
	assert.True(t, fast.Equal(decimal.NewFromInt(20)))

	_, ok = la.PriceFor(enums.DeliveryTypeSlow)
	assert.False(t, ok, "slow is not offered in Los Angeles")

	_, ok = la.PriceFor("express")
	assert.False(t, ok)
}

func TestOptionsMarksUnavailable(t *testing.T) {
	phoenix, ok := Find(DefaultCities(), 5)
	require.True(t, ok)

	opts := phoenix.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, enums.DeliveryTypeFast, opts[0].Type)
	assert.False(t, opts[0].Available)
	assert.False(t, opts[1].Available)
	assert.True(t, opts[2].Available)
	assert.Equal(t, "Slow", opts[2].Label)
	assert.True(t, opts[2].Price.Decimal.Equal(decimal.NewFromInt(9)))
}

func TestFindMissing(t *testing.T) {
	_, ok := Find(DefaultCities(), 99)
	assert.False(t, ok)
}

func TestSimulatedSourceSuccessReturnsCopy(t *testing.T) {
	src := NewSimulatedSource(SourceOptions{Outcomes: simulate.Fixed(0.9), Sleeper: simulate.NoSleep{}, FailureRate: 0.05})

	cities, err := src.FetchCities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 5)

	cities[0].Name = "mutated"
	again, err := src.FetchCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New York", again[0].Name)
}

func TestSimulatedSourceFailure(t *testing.T) {
	src := NewSimulatedSource(SourceOptions{Outcomes: simulate.Fixed(0.01), Sleeper: simulate.NoSleep{}, FailureRate: 0.05})

	_, err := src.FetchCities(context.Background())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, LoadFailureMessage, typed.Message())
}
