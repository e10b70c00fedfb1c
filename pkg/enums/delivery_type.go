package enums

import "fmt"

// DeliveryType is the delivery speed a customer picks for a city.
type DeliveryType string

const (
	DeliveryTypeFast    DeliveryType = "fast"
	DeliveryTypeRegular DeliveryType = "regular"
	DeliveryTypeSlow    DeliveryType = "slow"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeFast,
	DeliveryTypeRegular,
	DeliveryTypeSlow,
}

// DeliveryTypes returns the enumerated delivery types in display order.
func DeliveryTypes() []DeliveryType {
	out := make([]DeliveryType, len(validDeliveryTypes))
	copy(out, validDeliveryTypes)
	return out
}

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// Label returns the capitalised display label ("Fast", "Regular", "Slow").
func (d DeliveryType) Label() string {
	switch d {
	case DeliveryTypeFast:
		return "Fast"
	case DeliveryTypeRegular:
		return "Regular"
	case DeliveryTypeSlow:
		return "Slow"
	}
	return "Delivery"
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
