package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/checkout-flow/api/responses"
	pkgauth "github.com/angelmondragon/checkout-flow/pkg/auth"
	"github.com/angelmondragon/checkout-flow/pkg/config"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

// Session validates the bearer session token and seeds the request context
// with its session id.
func Session(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session token"))
				return
			}

			claims, err := pkgauth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			ctx := WithSessionID(r.Context(), claims.SessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, claims.SessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
