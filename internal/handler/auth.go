// Package handler contains the HTTP layer: request parsing, response
// writing, and nothing else. Business rules live in internal/service.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/service"
)

// sessionLifetime mirrors the JWT expiry set by auth.TokenService.Generate.
const sessionLifetime = 24 * time.Hour

// AuthHandler manages registration, login, and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create a member account
//   - HandleLogin    → verify credentials, issue the JWT cookie + body token
//   - HandleLogout   → clear the JWT cookie
//   - HandleMe       → return the currently logged-in user's profile
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new member account.
//
// HTTP: POST /auth/register
// BODY: {"name": "...", "email": "...", "password": "..."}
//
// The role is never read from the request — every registration is a member.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

// HandleLogin verifies credentials and starts a session.
//
// HTTP: POST /auth/login
// BODY: {"email": "...", "password": "..."}
//
// The JWT is set as an HttpOnly cookie (browser clients) AND returned in
// the body (clients that send it back as an Authorization bearer header).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// HttpOnly: JavaScript cannot read the cookie (XSS protection).
	// SameSite=Lax: sent on top-level navigations, not cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(sessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production behind HTTPS
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  result.User,
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// Stateless sessions: "logout" deletes the client-side cookie; the token
// itself stays valid until expiry, but the browser can no longer send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleListUsers returns all registered accounts.
//
// HTTP: GET /api/users
// Auth: coordinator only — the listing backs the "enroll a user" picker.
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.authSvc.ListUsers(r.Context(), claim)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: required — RequireAuth put the claim in the context.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), claim.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
