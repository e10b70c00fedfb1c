package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
)

// Field names as they appear in forms and on the wire.
const (
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldEmail        = "email"
	FieldCityID       = "cityId"
	FieldDeliveryType = "deliveryType"
)

const (
	nameRules  = "required,min=2,max=50,personname"
	emailRules = "required,email,max=100"
)

var personName = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)

var fieldRules = map[string]string{
	FieldFirstName: nameRules,
	FieldLastName:  nameRules,
	FieldEmail:     emailRules,
}

var messages = map[string]map[string]string{
	FieldFirstName: {
		"required":   "First name is required",
		"min":        "First name must be at least 2 characters",
		"max":        "First name must be less than 50 characters",
		"personname": "First name can only contain letters, spaces, hyphens, and apostrophes",
	},
	FieldLastName: {
		"required":   "Last name is required",
		"min":        "Last name must be at least 2 characters",
		"max":        "Last name must be less than 50 characters",
		"personname": "Last name can only contain letters, spaces, hyphens, and apostrophes",
	},
	FieldEmail: {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
		"max":      "Email must be less than 100 characters",
	},
	FieldCityID: {
		"required": MsgSelectCity,
		"min":      MsgSelectCity,
	},
	FieldDeliveryType: {
		"required": MsgSelectDeliveryType,
		"oneof":    MsgSelectDeliveryType,
	},
	"items": {
		"required": MsgEmptyCart,
		"min":      MsgEmptyCart,
	},
	"total": {
		"gt": "Total must be greater than 0",
	},
}

// Messages that do not come from a single struct tag.
const (
	MsgSelectCity            = "Please select a city"
	MsgSelectDeliveryType    = "Please select a delivery type"
	MsgCityUnavailable       = "Selected city is no longer available"
	MsgDeliveryTypeForbidden = "Selected delivery type is not available for this city"
	MsgEmptyCart             = "Cart cannot be empty"
	msgPositiveNumber        = "Number must be greater than 0"
	msgInvalid               = "Invalid value"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	if err := v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personName.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register personname validation: %v", err))
	}
	return v
}

// FieldErrors maps a form field to its first failing message.
type FieldErrors map[string]string

// Has reports whether field has an error.
func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// FieldError is one failing path of an order payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CustomerInfo is the Information step form and the customerInfo block of an order.
type CustomerInfo struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50,personname"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50,personname"`
	Email     string `json:"email" validate:"required,email,max=100"`
}

// Delivery is the delivery block of an order.
type Delivery struct {
	CityID       int    `json:"cityId" validate:"required,min=1"`
	DeliveryType string `json:"deliveryType" validate:"required,oneof=fast regular slow"`
}

// OrderItem is one cart line of an order.
type OrderItem struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price" validate:"gt=0"`
	Quantity     int     `json:"quantity" validate:"gt=0"`
}

// Order is the payload accepted by the order service.
type Order struct {
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Delivery     Delivery     `json:"delivery"`
	Items        []OrderItem  `json:"items" validate:"required,min=1,dive"`
	Total        float64      `json:"total" validate:"gt=0"`
}

// ValidateInformationField checks a single Information field as the user edits
// it and returns the first failing message, or "".
func ValidateInformationField(field, value string) string {
	rules, ok := fieldRules[field]
	if !ok {
		return ""
	}
	err := validate.Var(value, rules)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return messageFor(field, verrs[0].Tag())
	}
	return msgInvalid
}

// ValidateInformation checks the whole Information form. It returns nil when
// the form is valid.
func ValidateInformation(info CustomerInfo) FieldErrors {
	return collect(validate.Struct(info))
}

// Selection is the delivery choice being validated.
type Selection struct {
	CityID       *int
	DeliveryType *enums.DeliveryType
}

// ValidateDelivery checks the selection against the loaded catalog. It returns
// nil when the selection can be submitted.
func ValidateDelivery(sel Selection, cities []catalog.City) FieldErrors {
	errs := FieldErrors{}
	var (
		city  catalog.City
		found bool
	)
	switch {
	case sel.CityID == nil || *sel.CityID < 1:
		errs[FieldCityID] = MsgSelectCity
	default:
		city, found = catalog.Find(cities, *sel.CityID)
		if !found {
			errs[FieldCityID] = MsgCityUnavailable
		}
	}
	switch {
	case sel.DeliveryType == nil || !sel.DeliveryType.IsValid():
		errs[FieldDeliveryType] = MsgSelectDeliveryType
	case found && !city.Offers(*sel.DeliveryType):
		errs[FieldDeliveryType] = MsgDeliveryTypeForbidden
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateOrder checks an order payload and returns one entry per failing path
// (for example customerInfo.firstName or items.0.price).
func ValidateOrder(order Order) []FieldError {
	err := validate.Struct(order)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   dottedPath(fe.Namespace()),
			Message: messageFor(fe.Field(), fe.Tag()),
		})
	}
	return out
}

func collect(err error) FieldErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = messageFor(fe.Field(), fe.Tag())
	}
	return out
}

func messageFor(field, tag string) string {
	if byTag, ok := messages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	if tag == "gt" {
		return msgPositiveNumber
	}
	return msgInvalid
}

// dottedPath turns "Order.items[0].price" into "items.0.price".
func dottedPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	var b strings.Builder
	for i := 0; i < len(namespace); i++ {
		switch c := namespace[i]; c {
		case '[':
			b.WriteByte('.')
		case ']':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
