package users

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

// ErrUserNotFoundMessage is returned by Login for unknown emails.
const ErrUserNotFoundMessage = "User not found"

// MockUsers is the fixed set of accounts known to the demo auth provider.
func MockUsers() []cart.User {
	return []cart.User{
		{ID: 1, Name: "John Doe", Email: "john.doe@example.com"},
		{ID: 2, Name: "Jane Smith", Email: "jane.smith@example.com"},
		{ID: 3, Name: "Donald McDuck", Email: "donald@mcduck.com"},
	}
}

// Options configures a Directory.
type Options struct {
	Users         []cart.User
	LookupLatency time.Duration
	LoginLatency  time.Duration
	LogoutLatency time.Duration
	Outcomes      simulate.Outcomes
	Sleeper       simulate.Sleeper
}

// Directory is the simulated authentication provider.
type Directory struct {
	users         []cart.User
	lookupLatency time.Duration
	loginLatency  time.Duration
	logoutLatency time.Duration
	outcomes      simulate.Outcomes
	sleeper       simulate.Sleeper
}

// NewDirectory builds a Directory over MockUsers unless overridden.
func NewDirectory(opts Options) *Directory {
	if opts.Users == nil {
		opts.Users = MockUsers()
	}
	if opts.Outcomes == nil {
		opts.Outcomes = simulate.Random()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = simulate.RealSleeper()
	}
	return &Directory{
		users:         opts.Users,
		lookupLatency: opts.LookupLatency,
		loginLatency:  opts.LoginLatency,
		logoutLatency: opts.LogoutLatency,
		outcomes:      opts.Outcomes,
		sleeper:       opts.Sleeper,
	}
}

// ServerSideUser resolves the user a new session starts with: one of the known
// users or, with equal odds, nobody.
func (d *Directory) ServerSideUser(ctx context.Context) (*cart.User, error) {
	if err := d.sleeper.Sleep(ctx, d.lookupLatency); err != nil {
		return nil, err
	}
	idx := int(d.outcomes.Float64() * float64(len(d.users)+1))
	if idx >= len(d.users) {
		return nil, nil
	}
	user := d.users[idx]
	return &user, nil
}

// Login finds the user by case-insensitive email. Any password is accepted.
func (d *Directory) Login(ctx context.Context, email, _ string) (*cart.User, error) {
	if err := d.sleeper.Sleep(ctx, d.loginLatency); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, ErrUserNotFoundMessage)
}

// Logout waits for the provider to end the session.
func (d *Directory) Logout(ctx context.Context) error {
	return d.sleeper.Sleep(ctx, d.logoutLatency)
}
