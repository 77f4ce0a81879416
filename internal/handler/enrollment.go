package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/service"
)

// EnrollmentHandler exposes the two enrollment entry points over HTTP.
type EnrollmentHandler struct {
	enrollmentSvc *service.EnrollmentService
	logger        *slog.Logger
}

// NewEnrollmentHandler creates an EnrollmentHandler.
func NewEnrollmentHandler(enrollmentSvc *service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc, logger: logger}
}

// HandleJoin enrolls the requester into a challenge.
//
// HTTP: POST /api/challenges/{id}/join
// Auth: any authenticated user (self-join).
//
// Responses: 200 {message, challenge} on success, 404 if the challenge
// doesn't exist, 409 if the requester is already a participant.
func (h *EnrollmentHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	challengeID := r.PathValue("id")
	if challengeID == "" {
		http.Error(w, "Challenge ID is required", http.StatusBadRequest)
		return
	}

	challenge, err := h.enrollmentSvc.SelfJoin(r.Context(), claim, challengeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Joined challenge successfully",
		"challenge": challenge,
	})
}

type enrollUserRequest struct {
	UserID      string `json:"userId"`
	ChallengeID string `json:"challengeId"`
}

// HandleEnrollUser enrolls a named user into a challenge on behalf of a
// coordinator.
//
// HTTP: POST /api/enrollments
// BODY: {"userId": "...", "challengeId": "..."}
// Auth: coordinator only — members get 403 before any lookup happens.
func (h *EnrollmentHandler) HandleEnrollUser(w http.ResponseWriter, r *http.Request) {
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req enrollUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid enrollment JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.enrollmentSvc.EnrollUser(r.Context(), claim, req.UserID, req.ChallengeID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User enrolled in challenge successfully",
	})
}
