package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
)

// Listener is notified with a copy of the state after every persisted change.
type Listener func(State)

// Options configures Open.
type Options struct {
	// SeedItems populate the cart of a session that has no stored record yet.
	SeedItems []CartItem
}

// Store is the single source of truth for one session's cart and checkout
// progress. Every mutation is persisted before it becomes visible.
type Store struct {
	mu        sync.Mutex
	key       string
	persister Persister
	state     State

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// Open hydrates the store for key, creating and persisting the initial record
// when none exists.
func Open(ctx context.Context, persister Persister, key string, opts Options) (*Store, error) {
	if persister == nil {
		return nil, errors.New("persister required")
	}
	if key == "" {
		return nil, errors.New("store key required")
	}
	s := &Store{key: key, persister: persister, listeners: map[int]Listener{}}

	loaded, err := persister.Load(ctx, key)
	switch {
	case err == nil:
		s.state = loaded.Clone()
		if !s.state.CurrentStep.IsValid() {
			s.state.CurrentStep = enums.CheckoutStepInformation
		}
		return s, nil
	case errors.Is(err, ErrStateNotFound):
		initial := NewState(opts.SeedItems)
		if err := persister.Save(ctx, key, initial); err != nil {
			return nil, fmt.Errorf("persist initial state: %w", err)
		}
		s.state = initial
		return s, nil
	default:
		return nil, err
	}
}

// Key returns the persistence key of the store.
func (s *Store) Key() string { return s.key }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []CartItem {
	return s.Snapshot().Items
}

// CheckoutData returns a copy of the persisted checkout form data.
func (s *Store) CheckoutData() CheckoutData {
	return s.Snapshot().CheckoutData
}

// CurrentStep returns the persisted step.
func (s *Store) CurrentStep() enums.CheckoutStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentStep
}

// User returns the session user, nil when anonymous.
func (s *Store) User() *User {
	return s.Snapshot().User
}

// TotalPrice is the sum of price × quantity over all items.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.state.Items)
}

func totalPrice(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// DeliveryPrice resolves the price of the persisted city/type selection against
// cities. It is zero when nothing is selected or the pair is not offered.
func (s *Store) DeliveryPrice(cities []catalog.City) decimal.Decimal {
	data := s.CheckoutData()
	if data.CityID == nil || data.DeliveryType == nil {
		return decimal.Zero
	}
	city, ok := catalog.Find(cities, *data.CityID)
	if !ok {
		return decimal.Zero
	}
	price, ok := city.PriceFor(*data.DeliveryType)
	if !ok {
		return decimal.Zero
	}
	return price
}

// AddItem increments the quantity of an existing line or appends a new one.
func (s *Store) AddItem(ctx context.Context, p Product) error {
	return s.mutate(ctx, func(st *State) bool {
		for i := range st.Items {
			if st.Items[i].ID == p.ID {
				st.Items[i].Quantity++
				return true
			}
		}
		st.Items = append(st.Items, CartItem{
			ID:           p.ID,
			Name:         p.Name,
			Manufacturer: p.Manufacturer,
			Price:        p.Price,
			ImageURL:     p.ImageURL,
			Quantity:     1,
		})
		return true
	})
}

// RemoveItem deletes the line with id; unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id int) error {
	return s.mutate(ctx, func(st *State) bool {
		return removeLine(st, id)
	})
}

func removeLine(st *State, id int) bool {
	for i := range st.Items {
		if st.Items[i].ID == id {
			st.Items = append(st.Items[:i], st.Items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the quantity of a line; anything below 1 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id, quantity int) error {
	return s.mutate(ctx, func(st *State) bool {
		if quantity < 1 {
			return removeLine(st, id)
		}
		for i := range st.Items {
			if st.Items[i].ID == id {
				if st.Items[i].Quantity == quantity {
					return false
				}
				st.Items[i].Quantity = quantity
				return true
			}
		}
		return false
	})
}

// ClearCart empties the items and leaves checkout data untouched.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func(st *State) bool {
		st.Items = []CartItem{}
		return true
	})
}

// UpdateCheckoutData merges the provided fields into the checkout data.
func (s *Store) UpdateCheckoutData(ctx context.Context, patch CheckoutPatch) error {
	return s.mutate(ctx, func(st *State) bool {
		patch.apply(&st.CheckoutData)
		return true
	})
}

// SetCurrentStep stores the step as-is; transition rules live in the controller.
func (s *Store) SetCurrentStep(ctx context.Context, step enums.CheckoutStep) error {
	if !step.IsValid() {
		return fmt.Errorf("invalid checkout step %d", int(step))
	}
	return s.mutate(ctx, func(st *State) bool {
		st.CurrentStep = step
		return true
	})
}

// SetUser replaces the session user; nil signs the session out.
func (s *Store) SetUser(ctx context.Context, user *User) error {
	return s.mutate(ctx, func(st *State) bool {
		if user == nil {
			st.User = nil
			return true
		}
		u := *user
		st.User = &u
		return true
	})
}

// ResetCheckout clears the checkout data and returns to the first step. Items
// and user are kept.
func (s *Store) ResetCheckout(ctx context.Context) error {
	return s.mutate(ctx, func(st *State) bool {
		st.CheckoutData = CheckoutData{}
		st.CurrentStep = enums.CheckoutStepInformation
		return true
	})
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenerMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenerMu.Unlock()
	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *Store) mutate(ctx context.Context, fn func(*State) bool) error {
	s.mu.Lock()
	next := s.state.Clone()
	if changed := fn(&next); !changed {
		s.mu.Unlock()
		return nil
	}
	if err := s.persister.Save(ctx, s.key, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.mu.Unlock()

	s.notify(next.Clone())
	return nil
}

func (s *Store) notify(state State) {
	s.listenerMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(state)
	}
}
