package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/service"
)

// ChallengeHandler serves the challenge query surface and creation.
// Enrollment mutations (join / enroll) live in EnrollmentHandler.
type ChallengeHandler struct {
	challengeSvc *service.ChallengeService
	logger       *slog.Logger
}

// NewChallengeHandler creates a ChallengeHandler.
func NewChallengeHandler(challengeSvc *service.ChallengeService, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{challengeSvc: challengeSvc, logger: logger}
}

// HandleList returns all challenges with participant projections.
//
// HTTP: GET /api/challenges
func (h *ChallengeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challengeSvc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenges)
}

// HandleGetByID returns a single challenge.
//
// HTTP: GET /api/challenges/{id}
// 404 with a "not found" message when the ID doesn't exist.
func (h *ChallengeHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Challenge ID is required", http.StatusBadRequest)
		return
	}

	challenge, err := h.challengeSvc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenge)
}

type createChallengeRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	LongDescription string   `json:"longDescription"`
	TotalDays       int      `json:"totalDays"`
	ImageURL        string   `json:"imageUrl"`
	ExternalLink    string   `json:"externalLink"`
	PDFs            []string `json:"pdfs"`
}

// HandleCreate creates a new challenge.
//
// HTTP: POST /api/challenges
// Auth: coordinator only — the service enforces the role gate; members get
// a 403 regardless of payload.
func (h *ChallengeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid challenge JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	challenge, err := h.challengeSvc.Create(r.Context(), claim, service.CreateChallengeInput{
		Title:           req.Title,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		TotalDays:       req.TotalDays,
		ImageURL:        req.ImageURL,
		ExternalLink:    req.ExternalLink,
		PDFs:            req.PDFs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Challenge created successfully",
		"challenge": challenge,
	})
}

// HandleListJoined returns the challenges the authenticated user has joined.
//
// HTTP: GET /api/me/challenges
func (h *ChallengeHandler) HandleListJoined(w http.ResponseWriter, r *http.Request) {
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	challenges, err := h.challengeSvc.ListJoined(r.Context(), claim.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenges)
}
