package enums

import "testing"

func TestCheckoutStepNavigation(t *testing.T) {
	next, ok := CheckoutStepInformation.Next()
	if !ok || next != CheckoutStepDelivery {
		t.Fatalf("expected delivery after information, got %v %v", next, ok)
	}
	if _, ok := CheckoutStepSummary.Next(); ok {
		t.Fatal("summary must not have a successor")
	}
	prev, ok := CheckoutStepSummary.Previous()
	if !ok || prev != CheckoutStepDelivery {
		t.Fatalf("expected delivery before summary, got %v %v", prev, ok)
	}
	if _, ok := CheckoutStepInformation.Previous(); ok {
		t.Fatal("information must not have a predecessor")
	}
	if CheckoutStep(4).IsValid() {
		t.Fatal("step 4 must be invalid")
	}
}

func TestParseCheckoutStep(t *testing.T) {
	step, err := ParseCheckoutStep("delivery")
	if err != nil || step != CheckoutStepDelivery {
		t.Fatalf("unexpected parse result %v %v", step, err)
	}
	if _, err := ParseCheckoutStep("payment"); err == nil {
		t.Fatal("expected error for unknown step")
	}
}

func TestParseDeliveryType(t *testing.T) {
	for _, raw := range []string{"fast", "regular", "slow"} {
		dt, err := ParseDeliveryType(raw)
		if err != nil || dt.String() != raw {
			t.Fatalf("parse %q: %v %v", raw, dt, err)
		}
	}
	if _, err := ParseDeliveryType("express"); err == nil {
		t.Fatal("expected error for unknown delivery type")
	}
	if DeliveryTypeRegular.Label() != "Regular" {
		t.Fatalf("unexpected label %q", DeliveryTypeRegular.Label())
	}
}
