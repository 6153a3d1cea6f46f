package bridge

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/railscookie/pkg/logger"
)

// bearerAuth accepts requests carrying "Authorization: Bearer <token>" where
// token is an HS256 JWT signed with secret. Expiry and not-before claims are
// enforced when present.
func bearerAuth(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(0),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "bearer token required")
				return
			}

			token, err := parser.ParseWithClaims(raw, &jwt.RegisteredClaims{}, keyFunc)
			if err != nil || !token.Valid {
				log.DebugContext(r.Context(), "bridge token rejected", logger.Error(err))
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
