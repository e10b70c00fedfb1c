package controllers

import (
	"net/http"

	"github.com/angelmondragon/checkout-flow/api/middleware"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

func sessionController(r *http.Request, registry *checkout.Registry) (*checkout.Controller, error) {
	if registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout registry unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	ctrl, err := registry.Get(r.Context(), sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return ctrl, nil
}
