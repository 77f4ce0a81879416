// Package auth provides JWT session tokens and password hashing for the
// UR Fit API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User registers with name/email/password (bcrypt-hashed, see password.go)
// 2. POST /auth/login verifies the password and issues a JWT
// 3. The token is returned in the body AND set as an HttpOnly cookie
// 4. On subsequent API calls, middleware validates the JWT and puts the
//    decoded Claim (userID + role) in the request context
//
// WHY JWT?
// JWT is stateless — the server doesn't store session data. Everything needed
// to authorize a request (userID, role, expiry) is inside the signed token,
// so validation requires no network or database access. The signature ensures
// nobody can tamper with the role claim without the secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/urfit-server/internal/model"
)

const issuer = "urfit"

// Claim is the verified identity extracted from a session token.
//
// It is ephemeral — derived per request, never persisted. Both fields are
// checked at decode time: a token with an empty subject or an unknown role is
// rejected as an invalid credential rather than passed through duck-typed.
type Claim struct {
	UserID string
	Role   model.Role
}

// IsCoordinator reports whether the claim carries the privileged role.
func (c Claim) IsCoordinator() bool {
	return c.Role == model.RoleCoordinator
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations — keep it safe and rotate it
// periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds the custom "role" claim the
// enrollment engine authorizes against.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new JWT access token for the given user.
//
// Token lifetime: 24 hours — UR Fit sessions are expected to span a day of
// workouts; shorter-lived access tokens plus refresh tokens would be the next
// step if this ever needs tightening.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key for signing
// and verifying, appropriate for a single-server deployment.
func (s *TokenService) Generate(userID string, role model.Role) (string, error) {
	return s.GenerateWithDuration(userID, role, 24*time.Hour)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests and for issuing shorter-lived tokens.
func (s *TokenService) GenerateWithDuration(userID string, role model.Role, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: userID must not be empty")
	}
	if !role.Valid() {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}

	now := time.Now()
	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the decoded Claim.
//
// VALIDATION CHECKS:
//   - Signature is valid (token wasn't tampered with)
//   - Token is not expired (and an expiry is present)
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - Subject is non-empty and role is a known value — a structurally valid
//     token missing either field is still an invalid credential
//
// Validation is a pure function of the token content: no store access, no
// side effects. Callers must treat any error as "unauthenticated", never as
// a crash.
func (s *TokenService) Validate(tokenStr string) (Claim, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claim{}, fmt.Errorf("auth: token expired")
		}
		return Claim{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Claim{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Claim{}, fmt.Errorf("auth: token has no subject")
	}

	role := model.Role(c.Role)
	if !role.Valid() {
		return Claim{}, fmt.Errorf("auth: token has unknown role %q", c.Role)
	}

	return Claim{UserID: c.Subject, Role: role}, nil
}
