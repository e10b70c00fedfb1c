package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
)

// PathInt parses a positive integer URL parameter.
func PathInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": name})
	}
	return value, nil
}
