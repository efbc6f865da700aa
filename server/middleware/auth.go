package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/resp"
)

// Authenticate wraps a downstream handler. At execution time, it
// extracts a Bearer token from the Authorization header; if the header
// is absent or malformed it aborts the request. Otherwise it resolves
// the token through the verifier and stores the identity on the
// request context for handlers to read with auth.GetIdentity.
func Authenticate(verifier auth.Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(auth.ExtractBearerToken(r.Header.Get("Authorization")))
		if token == "" {
			resp.WriteUnauthorized(w, "An access token is required")
			return
		}

		identity, err := verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnverified) {
				resp.WriteForbidden(w, "Token validation failed")
			} else {
				resp.WriteInternalServerError(w, "Could not verify access token")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.AddIdentity(r.Context(), identity)))
	})
}

// RequireAdmin rejects requests whose verified identity is not an
// admin. It must run inside Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())
		if identity == nil {
			resp.WriteUnauthorized(w, "An access token is required")
			return
		}
		if !identity.IsAdmin() {
			resp.WriteForbidden(w, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
