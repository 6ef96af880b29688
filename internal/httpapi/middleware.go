package httpapi

import (
	"net/http"

	"github.com/openshop/checkout/internal/gateway"
)

// AuthMiddleware resolves the shopper from the identity headers set by the
// upstream auth proxy. Requests without an identity still pass through;
// checkout surfaces the missing user as a redirect-to-login signal rather
// than this layer rejecting it.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		user := &gateway.User{
			ID:    userID,
			Email: r.Header.Get("X-User-Email"),
		}
		next.ServeHTTP(w, r.WithContext(gateway.WithUser(r.Context(), user)))
	})
}

// requireUser is for cart/profile endpoints, which have no meaning without
// an identity.
func requireUser(w http.ResponseWriter, r *http.Request) *gateway.User {
	user := gateway.ContextSession{}.CurrentUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return nil
	}
	return user
}
