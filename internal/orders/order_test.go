package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

func sampleState() cart.State {
	st := cart.NewState([]cart.CartItem{
		{ID: 1, Name: "Wireless Headphones", Manufacturer: "SoundMax", Price: decimal.RequireFromString("129.00"), Quantity: 1},
	})
	st.CheckoutData = cart.CheckoutData{
		FirstName:    "John",
		LastName:     "Doe",
		Email:        "john.doe@example.com",
		CityID:       ptr(1),
		DeliveryType: ptr(enums.DeliveryTypeFast),
	}
	st.CurrentStep = enums.CheckoutStepSummary
	return st
}

func TestBuildOrderTotalsItemsAndDelivery(t *testing.T) {
	t.Parallel()
	order, err := BuildOrder(sampleState(), catalog.DefaultCities())
	require.NoError(t, err)
	require.True(t, order.Subtotal.Equal(decimal.NewFromInt(129)))
	require.True(t, order.Delivery.Price.Equal(decimal.NewFromInt(15)))
	require.True(t, order.Total.Equal(decimal.NewFromInt(144)))

	wire := order.Wire()
	require.Equal(t, 144.0, wire.Total)
	require.Equal(t, "fast", wire.Delivery.DeliveryType)
	require.Equal(t, 1, wire.Delivery.CityID)
	require.Equal(t, 129.0, wire.Items[0].Price)
	require.Equal(t, "John", wire.CustomerInfo.FirstName)
}

func TestBuildOrderRejectsIncompleteState(t *testing.T) {
	t.Parallel()
	cities := catalog.DefaultCities()

	empty := sampleState()
	empty.Items = nil
	_, err := BuildOrder(empty, cities)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	noType := sampleState()
	noType.CheckoutData.DeliveryType = nil
	_, err = BuildOrder(noType, cities)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	notOffered := sampleState()
	notOffered.CheckoutData.CityID = ptr(5)
	_, err = BuildOrder(notOffered, cities)
	require.ErrorContains(t, err, "not available for this city")

	gone := sampleState()
	_, err = BuildOrder(gone, nil)
	require.ErrorContains(t, err, "no longer available")
}

func TestBuildOrderCopiesItems(t *testing.T) {
	t.Parallel()
	st := sampleState()
	order, err := BuildOrder(st, catalog.DefaultCities())
	require.NoError(t, err)
	st.Items[0].Quantity = 9
	require.Equal(t, 1, order.Items[0].Quantity)
}

func TestFingerprintTracksBody(t *testing.T) {
	t.Parallel()
	cities := catalog.DefaultCities()
	a, err := BuildOrder(sampleState(), cities)
	require.NoError(t, err)
	b, err := BuildOrder(sampleState(), cities)
	require.NoError(t, err)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fa, fb)

	changed := sampleState()
	changed.Items[0].Quantity = 2
	c, err := BuildOrder(changed, cities)
	require.NoError(t, err)
	fc, err := c.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fa, fc)
}
