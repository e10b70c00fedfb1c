package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-flow/pkg/enums"
)

// DeliveryPrices holds one price per delivery type; an invalid entry means the
// city does not offer that type.
type DeliveryPrices struct {
	Fast    decimal.NullDecimal `json:"fast"`
	Regular decimal.NullDecimal `json:"regular"`
	Slow    decimal.NullDecimal `json:"slow"`
}

// City is a deliverable destination with its per-type pricing.
type City struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Delivery DeliveryPrices `json:"delivery"`
}

// DeliveryOption is a single selectable row for a city.
type DeliveryOption struct {
	Type      enums.DeliveryType  `json:"type"`
	Label     string              `json:"label"`
	Price     decimal.NullDecimal `json:"price"`
	Available bool                `json:"available"`
}

// PriceFor resolves the price of the given delivery type. ok is false when the
// type is unknown or not offered by the city.
func (c City) PriceFor(t enums.DeliveryType) (decimal.Decimal, bool) {
	var price decimal.NullDecimal
	switch t {
	case enums.DeliveryTypeFast:
		price = c.Delivery.Fast
	case enums.DeliveryTypeRegular:
		price = c.Delivery.Regular
	case enums.DeliveryTypeSlow:
		price = c.Delivery.Slow
	default:
		return decimal.Zero, false
	}
	if !price.Valid {
		return decimal.Zero, false
	}
	return price.Decimal, true
}

// Offers reports whether the city has a price for t.
func (c City) Offers(t enums.DeliveryType) bool {
	_, ok := c.PriceFor(t)
	return ok
}

// Options lists every delivery type in display order with its availability.
func (c City) Options() []DeliveryOption {
	types := enums.DeliveryTypes()
	out := make([]DeliveryOption, 0, len(types))
	for _, t := range types {
		price, ok := c.PriceFor(t)
		opt := DeliveryOption{Type: t, Label: t.Label(), Available: ok}
		if ok {
			opt.Price = decimal.NewNullDecimal(price)
		}
		out = append(out, opt)
	}
	return out
}

// Find returns the city with the given id.
func Find(cities []City, id int) (City, bool) {
	for _, c := range cities {
		if c.ID == id {
			return c, true
		}
	}
	return City{}, false
}

func price(value string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(value))
}

var unavailable = decimal.NullDecimal{}

// DefaultCities is the reference catalog served by the simulated source.
func DefaultCities() []City {
	return []City{
		{ID: 1, Name: "New York", Delivery: DeliveryPrices{Fast: price("15.00"), Regular: price("10.00"), Slow: price("5.00")}},
		{ID: 2, Name: "Los Angeles", Delivery: DeliveryPrices{Fast: price("20.00"), Regular: price("12.00"), Slow: unavailable}},
		{ID: 3, Name: "Chicago", Delivery: DeliveryPrices{Fast: unavailable, Regular: price("14.00"), Slow: price("7.00")}},
		{ID: 4, Name: "Houston", Delivery: DeliveryPrices{Fast: price("18.00"), Regular: price("11.00"), Slow: price("6.00")}},
		{ID: 5, Name: "Phoenix", Delivery: DeliveryPrices{Fast: unavailable, Regular: unavailable, Slow: price("9.00")}},
	}
}
