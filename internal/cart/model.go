package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-flow/pkg/enums"
)

// Product is the catalogue data a shopper adds to the cart.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl"`
}

// CartItem is a product line with its quantity (always >= 1 once stored).
type CartItem struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl"`
	Quantity     int             `json:"quantity"`
}

// LineTotal returns price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CheckoutData is the customer-provided form state shared across steps.
type CheckoutData struct {
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Email        string              `json:"email"`
	CityID       *int                `json:"cityId"`
	DeliveryType *enums.DeliveryType `json:"deliveryType"`
}

// IsContactEmpty reports whether none of the customer fields have been filled.
func (d CheckoutData) IsContactEmpty() bool {
	return d.FirstName == "" && d.LastName == "" && d.Email == ""
}

func (d CheckoutData) clone() CheckoutData {
	out := d
	if d.CityID != nil {
		id := *d.CityID
		out.CityID = &id
	}
	if d.DeliveryType != nil {
		dt := *d.DeliveryType
		out.DeliveryType = &dt
	}
	return out
}

// CheckoutPatch is a shallow partial update of CheckoutData. Nil fields are left
// untouched; the Clear flags set the nullable fields back to null.
type CheckoutPatch struct {
	FirstName         *string
	LastName          *string
	Email             *string
	CityID            *int
	ClearCity         bool
	DeliveryType      *enums.DeliveryType
	ClearDeliveryType bool
}

func (p CheckoutPatch) apply(d *CheckoutData) {
	if p.FirstName != nil {
		d.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		d.LastName = *p.LastName
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.ClearCity {
		d.CityID = nil
	} else if p.CityID != nil {
		id := *p.CityID
		d.CityID = &id
	}
	if p.ClearDeliveryType {
		d.DeliveryType = nil
	} else if p.DeliveryType != nil {
		dt := *p.DeliveryType
		d.DeliveryType = &dt
	}
}

// User is the optional authenticated context of the session.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// State is the single durable record kept per session.
type State struct {
	Items        []CartItem         `json:"items"`
	CheckoutData CheckoutData       `json:"checkoutData"`
	CurrentStep  enums.CheckoutStep `json:"currentStep"`
	User         *User              `json:"user"`
}

// NewState returns the initial state seeded with the given items.
func NewState(items []CartItem) State {
	st := State{
		Items:       make([]CartItem, 0, len(items)),
		CurrentStep: enums.CheckoutStepInformation,
	}
	st.Items = append(st.Items, items...)
	return st
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{
		Items:        make([]CartItem, len(s.Items)),
		CheckoutData: s.CheckoutData.clone(),
		CurrentStep:  s.CurrentStep,
	}
	copy(out.Items, s.Items)
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// DemoItems is the cart a fresh demo session starts with.
func DemoItems() []CartItem {
	return []CartItem{
		{ID: 1, Name: "Wireless Headphones", Manufacturer: "SoundMax", Price: decimal.RequireFromString("129.00"), ImageURL: "https://picsum.photos/seed/headphones/300/200", Quantity: 1},
		{ID: 2, Name: "Smartphone X12", Manufacturer: "TechNova", Price: decimal.RequireFromString("899.00"), ImageURL: "https://picsum.photos/seed/smartphone/300/200", Quantity: 1},
		{ID: 3, Name: "Gaming Laptop Pro", Manufacturer: "HyperTech", Price: decimal.RequireFromString("1599.50"), ImageURL: "https://picsum.photos/seed/laptop/300/200", Quantity: 1},
	}
}
