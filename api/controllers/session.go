package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/checkout-flow/api/middleware"
	"github.com/angelmondragon/checkout-flow/api/responses"
	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	"github.com/angelmondragon/checkout-flow/internal/users"
	pkgauth "github.com/angelmondragon/checkout-flow/pkg/auth"
	"github.com/angelmondragon/checkout-flow/pkg/config"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

type sessionResponse struct {
	Token     string     `json:"token"`
	SessionID string     `json:"sessionId"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *cart.User `json:"user"`
}

// CreateSession opens a new checkout session and returns its bearer token. The
// server-side user lookup decides whether the session starts signed in.
func CreateSession(cfg config.JWTConfig, registry *checkout.Registry, directory *users.Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil || directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session services unavailable"))
			return
		}

		now := time.Now().UTC()
		sessionID := pkgauth.NewSessionID()
		token, err := pkgauth.MintSessionToken(cfg, now, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		ctx := middleware.WithSessionID(r.Context(), sessionID)
		if logg != nil {
			ctx = logg.WithSessionID(ctx, sessionID)
		}
		ctrl, err := registry.Get(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session"))
			return
		}

		user, err := directory.ServerSideUser(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if user != nil {
			if _, err := ctrl.SetUser(ctx, user); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Token:     token,
			SessionID: sessionID,
			ExpiresAt: now.Add(cfg.Expiration()),
			User:      user,
		})
	}
}
