package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
)

func validInfo() CustomerInfo {
	return CustomerInfo{FirstName: "Mary-Jane", LastName: "O'Neil", Email: "mj@example.com"}
}

func TestValidateInformationField(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"empty first name", FieldFirstName, "", "First name is required"},
		{"short first name", FieldFirstName, "A", "First name must be at least 2 characters"},
		{"long last name", FieldLastName, strings.Repeat("a", 51), "Last name must be less than 50 characters"},
		{"digits in last name", FieldLastName, "R2D2", "Last name can only contain letters, spaces, hyphens, and apostrophes"},
		{"valid name with space", FieldFirstName, "Anne Marie", ""},
		{"empty email", FieldEmail, "", "Email is required"},
		{"bad email", FieldEmail, "not-an-email", "Please enter a valid email address"},
		{"valid email", FieldEmail, "john.doe@example.com", ""},
		{"unknown field", "nickname", "", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateInformationField(tc.field, tc.value); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestValidateInformation(t *testing.T) {
	t.Parallel()
	require.Nil(t, ValidateInformation(validInfo()))

	info := validInfo()
	info.FirstName = "A"
	info.Email = ""
	errs := ValidateInformation(info)
	require.Equal(t, FieldErrors{
		FieldFirstName: "First name must be at least 2 characters",
		FieldEmail:     "Email is required",
	}, errs)
	require.True(t, errs.Has(FieldFirstName))
	require.False(t, errs.Has(FieldLastName))
}

func TestValidateInformationBoundaries(t *testing.T) {
	t.Parallel()
	info := validInfo()
	info.FirstName = strings.Repeat("b", 50)
	info.LastName = "Xi"
	require.Nil(t, ValidateInformation(info))
}

func ptr[T any](v T) *T { return &v }

func TestValidateDelivery(t *testing.T) {
	t.Parallel()
	cities := catalog.DefaultCities()
	cases := []struct {
		name string
		sel  Selection
		want FieldErrors
	}{
		{"both null", Selection{}, FieldErrors{FieldCityID: MsgSelectCity, FieldDeliveryType: MsgSelectDeliveryType}},
		{"city only", Selection{CityID: ptr(1)}, FieldErrors{FieldDeliveryType: MsgSelectDeliveryType}},
		{"type only", Selection{DeliveryType: ptr(enums.DeliveryTypeFast)}, FieldErrors{FieldCityID: MsgSelectCity}},
		{"unknown city", Selection{CityID: ptr(42), DeliveryType: ptr(enums.DeliveryTypeFast)}, FieldErrors{FieldCityID: MsgCityUnavailable}},
		{"type not offered", Selection{CityID: ptr(3), DeliveryType: ptr(enums.DeliveryTypeFast)}, FieldErrors{FieldDeliveryType: MsgDeliveryTypeForbidden}},
		{"invalid type", Selection{CityID: ptr(1), DeliveryType: ptr(enums.DeliveryType("teleport"))}, FieldErrors{FieldDeliveryType: MsgSelectDeliveryType}},
		{"valid", Selection{CityID: ptr(5), DeliveryType: ptr(enums.DeliveryTypeSlow)}, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ValidateDelivery(tc.sel, cities))
		})
	}
}

func TestValidateDeliveryAgainstEmptyCatalog(t *testing.T) {
	t.Parallel()
	errs := ValidateDelivery(Selection{CityID: ptr(1), DeliveryType: ptr(enums.DeliveryTypeFast)}, nil)
	require.Equal(t, FieldErrors{FieldCityID: MsgCityUnavailable}, errs)
}

func validOrder() Order {
	return Order{
		CustomerInfo: validInfo(),
		Delivery:     Delivery{CityID: 1, DeliveryType: "fast"},
		Items:        []OrderItem{{ID: 1, Name: "Wireless Headphones", Manufacturer: "SoundMax", Price: 129, Quantity: 1}},
		Total:        144,
	}
}

func TestValidateOrderAcceptsWellFormedOrder(t *testing.T) {
	t.Parallel()
	require.Empty(t, ValidateOrder(validOrder()))
}

func TestValidateOrderReportsDottedPaths(t *testing.T) {
	t.Parallel()
	order := validOrder()
	order.CustomerInfo.FirstName = "A"
	order.Delivery.DeliveryType = "teleport"
	order.Items = append(order.Items, OrderItem{ID: 2, Price: -1, Quantity: 0})
	order.Total = 0

	got := ValidateOrder(order)
	require.Equal(t, []FieldError{
		{Field: "customerInfo.firstName", Message: "First name must be at least 2 characters"},
		{Field: "delivery.deliveryType", Message: MsgSelectDeliveryType},
		{Field: "items.1.price", Message: "Number must be greater than 0"},
		{Field: "items.1.quantity", Message: "Number must be greater than 0"},
		{Field: "total", Message: "Total must be greater than 0"},
	}, got)
}

func TestValidateOrderEmptyCart(t *testing.T) {
	t.Parallel()
	order := validOrder()
	order.Items = []OrderItem{}
	require.Equal(t, []FieldError{{Field: "items", Message: MsgEmptyCart}}, ValidateOrder(order))

	order.Items = nil
	require.Equal(t, []FieldError{{Field: "items", Message: MsgEmptyCart}}, ValidateOrder(order))
}
