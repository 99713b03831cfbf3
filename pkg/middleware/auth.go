package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/coursecraft/platform/pkg/composables"
)

const userIDHeader = "X-User-Id"

// GatewayAuth trusts the identity header injected by the upstream gateway
// and puts the acting user's id on the request context. Requests without a
// parseable id pass through unauthenticated; handlers that need an actor
// reject them via composables.UseUserID.
func GatewayAuth() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(userIDHeader))
			if raw != "" {
				if userID, err := uuid.Parse(raw); err == nil {
					r = r.WithContext(composables.WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
