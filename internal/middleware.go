package internal

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/wook219/pyeonjip-support/internal/auth"
)

// Auth validates the client's bearer token. The storefront keeps the
// access token in local storage and sends it on every request, so
// there are no cookies involved here.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Authorization required.", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateJWT(token, os.Getenv("JWT_SECRET"))
		if err != nil {
			http.Error(w, "Invalid or expired token.", http.StatusUnauthorized)
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), auth.ClaimsKey, claims))
		next.ServeHTTP(w, r)
	})
}

// AdminOnly gates the dashboard endpoints. A non-admin caller is sent
// back to the plain chat entry point instead of seeing an error page.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ClaimsFromContext(r.Context())
		if err != nil || !claims.IsAdmin() {
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
