package controllers

import (
	"net/http"

	"github.com/angelmondragon/checkout-flow/api/responses"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

// CitiesList fetches the delivery catalog afresh on every call.
func CitiesList(fetcher catalog.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fetcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		cities, err := fetcher.FetchCities(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cities": cities})
	}
}
