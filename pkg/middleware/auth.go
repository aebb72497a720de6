package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/pkg/response"
)

// TokenVerifier is the slice of the token service the guard needs.
type TokenVerifier interface {
	Verify(token string) (email string, err error)
}

// RoleLookup resolves the role for an authenticated email. A missing user
// must come back as the zero Role, not an error.
type RoleLookup interface {
	RoleByEmail(ctx context.Context, email string) (models.Role, error)
}

type claimKey struct{}

// ClaimFromCtx returns the authenticated email attached by Authenticate.
func ClaimFromCtx(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(claimKey{}).(string)
	return email, ok && email != ""
}

// WithClaim attaches an authenticated identity to ctx.
func WithClaim(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, claimKey{}, email)
}

// Authenticate is the guard's first stage: it requires an
// "Authorization: Bearer <token>" header and a token the verifier accepts.
// Both a missing header and a failed verification produce the same 401 body.
// On success the decoded claim is attached to the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Unauthorized(w)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			email, err := verifier.Verify(token)
			if err != nil {
				response.Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaim(r.Context(), email)))
		})
	}
}

// RequireAdmin is the guard's second stage, applied after Authenticate on
// admin-restricted routes. It re-reads the user store on every request, never
// a cache, and denies when the record is absent or the role lacks the
// capability. A pure gate: no state is mutated on either outcome.
func RequireAdmin(roles RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := ClaimFromCtx(r.Context())
			if !ok {
				response.Unauthorized(w)
				return
			}

			role, err := roles.RoleByEmail(r.Context(), email)
			if err != nil {
				// A store outage is not an authorization verdict.
				response.Error(w, http.StatusInternalServerError, "could not verify permissions")
				return
			}
			if !role.CanManageStore() {
				response.Forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
