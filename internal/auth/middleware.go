package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package can
// create a key of type contextKey, so only this package can read or write
// claim values in the context.
type contextKey string

const claimKey contextKey = "claim"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "token" HttpOnly cookie or, failing that, from an
// "Authorization: Bearer <token>" header (API clients that don't hold cookies
// supply the credential explicitly). The validated Claim — userID plus role —
// is stored in the request context. If the credential is missing or invalid,
// the chain stops with 401 Unauthorized; an absent credential is
// "unauthenticated", never a crash.
//
// The middleware never reads credential storage itself beyond the request —
// whatever layer renders the UI owns where tokens live client-side.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, err := extractClaim(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaim(r.Context(), claim)))
		})
	}
}

// ContextWithClaim returns a context carrying the claim. Normally only
// RequireAuth calls this; handler tests use it to simulate an
// authenticated request without a full token round trip.
func ContextWithClaim(ctx context.Context, claim Claim) context.Context {
	return context.WithValue(ctx, claimKey, claim)
}

// ClaimFromContext retrieves the authenticated claim from the request
// context.
//
// Returns (Claim{}, false) if the request is anonymous. On routes behind
// RequireAuth it always returns (claim, true).
func ClaimFromContext(ctx context.Context) (Claim, bool) {
	claim, ok := ctx.Value(claimKey).(Claim)
	return claim, ok && claim.UserID != ""
}

// extractClaim finds the bearer credential on the request and validates it.
//
// Cookie first (browser clients), then the Authorization header (API
// clients). The header form is "Bearer <jwt>" per RFC 6750.
func extractClaim(r *http.Request, tokens *TokenService) (Claim, error) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	if tokenStr, ok := strings.CutPrefix(header, "Bearer "); ok && tokenStr != "" {
		return tokens.Validate(tokenStr)
	}

	return Claim{}, http.ErrNoCookie
}
