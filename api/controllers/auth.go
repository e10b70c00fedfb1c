package controllers

import (
	"net/http"

	"github.com/angelmondragon/checkout-flow/api/responses"
	"github.com/angelmondragon/checkout-flow/api/validators"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	"github.com/angelmondragon/checkout-flow/internal/users"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"max=200"`
}

// AuthLogin signs the session in as the mock user owning the email.
func AuthLogin(registry *checkout.Registry, directory *users.Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := directory.Login(r.Context(), validators.SanitizeString(body.Email, 100), body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := ctrl.SetUser(r.Context(), user); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), user.ID), "user signed in")
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthLogout signs the session out. Entered checkout data is kept.
func AuthLogout(registry *checkout.Registry, directory *users.Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := directory.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "logout"))
			return
		}
		if _, err := ctrl.SetUser(r.Context(), nil); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// Me returns the signed-in user of the session, or null.
func Me(registry *checkout.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessionController(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user": ctrl.Store().User()})
	}
}
