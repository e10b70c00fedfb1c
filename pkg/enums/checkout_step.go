package enums

import "fmt"

// CheckoutStep is the position inside the checkout sequence.
type CheckoutStep int

const (
	CheckoutStepInformation CheckoutStep = 1
	CheckoutStepDelivery    CheckoutStep = 2
	CheckoutStepSummary     CheckoutStep = 3
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepInformation,
	CheckoutStepDelivery,
	CheckoutStepSummary,
}

var checkoutStepNames = map[CheckoutStep]string{
	CheckoutStepInformation: "information",
	CheckoutStepDelivery:    "delivery",
	CheckoutStepSummary:     "summary",
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	if name, ok := checkoutStepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// Next returns the following step; Summary has no successor inside the flow.
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	if !s.IsValid() || s == CheckoutStepSummary {
		return s, false
	}
	return s + 1, true
}

// Previous returns the preceding step; Information has none (back exits checkout).
func (s CheckoutStep) Previous() (CheckoutStep, bool) {
	if !s.IsValid() || s == CheckoutStepInformation {
		return s, false
	}
	return s - 1, true
}

// ParseCheckoutStep converts a step name into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for step, name := range checkoutStepNames {
		if name == value {
			return step, nil
		}
	}
	return 0, fmt.Errorf("invalid checkout step %q", value)
}
