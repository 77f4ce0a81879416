package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/urfit-server/internal/apperror"
	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/model"
	"github.com/sakif/urfit-server/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 2000
	MaxTotalDays         = 365
)

// ChallengeService handles challenge creation and the query surface:
// everything that reads or writes challenges without changing membership.
// Enrollment mutations live in EnrollmentService.
type ChallengeService struct {
	users      repository.UserRepository
	challenges repository.ChallengeRepository
	logger     *slog.Logger
}

// NewChallengeService creates a ChallengeService.
func NewChallengeService(
	users repository.UserRepository,
	challenges repository.ChallengeRepository,
	logger *slog.Logger,
) *ChallengeService {
	return &ChallengeService{
		users:      users,
		challenges: challenges,
		logger:     logger,
	}
}

// CreateChallengeInput carries the coordinator-supplied challenge fields.
type CreateChallengeInput struct {
	Title           string
	Description     string
	LongDescription string
	TotalDays       int
	ImageURL        string
	ExternalLink    string
	PDFs            []string
}

// Create validates and persists a new challenge.
//
// Authorization: coordinators only — challenge creation is a privileged
// action, gated here rather than in routing so every caller passes through
// the same predicate.
func (s *ChallengeService) Create(ctx context.Context, claim auth.Claim, input CreateChallengeInput) (*model.Challenge, error) {
	if !claim.IsCoordinator() {
		return nil, apperror.Forbidden("access denied")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "challenge title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("challenge title must be %d characters or less", MaxTitleLength))
	}
	if len(input.Description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if input.TotalDays <= 0 {
		return nil, apperror.ValidationFailed("totalDays", "total days must be a positive number")
	}
	if input.TotalDays > MaxTotalDays {
		return nil, apperror.ValidationFailed("totalDays",
			fmt.Sprintf("total days must be %d or less", MaxTotalDays))
	}

	challenge := &model.Challenge{
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		LongDescription: strings.TrimSpace(input.LongDescription),
		TotalDays:       input.TotalDays,
		ImageURL:        strings.TrimSpace(input.ImageURL),
		ExternalLink:    strings.TrimSpace(input.ExternalLink),
		PDFs:            input.PDFs,
	}

	if err := s.challenges.Create(ctx, challenge); err != nil {
		s.logger.Error("failed to create challenge",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating challenge: %w", err)
	}

	s.logger.Info("challenge created",
		slog.String("id", challenge.ID),
		slog.String("title", challenge.Title),
		slog.String("coordinatorID", claim.UserID),
	)

	return challenge, nil
}

// GetByID returns the challenge with its participant projections resolved.
// Returns apperror.ErrNotFound if the challenge doesn't exist.
func (s *ChallengeService) GetByID(ctx context.Context, id string) (*model.Challenge, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "challenge ID is required")
	}

	return s.challenges.GetByID(ctx, id)
}

// List returns all challenges with resolved participant projections.
func (s *ChallengeService) List(ctx context.Context) ([]model.Challenge, error) {
	challenges, err := s.challenges.List(ctx)
	if err != nil {
		s.logger.Error("failed to list challenges", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	return challenges, nil
}

// ListJoined returns the challenges the given user has joined.
//
// The user is looked up first so a missing account reads as "user not
// found" rather than an empty list — an empty list means "exists, joined
// nothing".
func (s *ChallengeService) ListJoined(ctx context.Context, userID string) ([]model.Challenge, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	challenges, err := s.challenges.ListJoined(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list joined challenges",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing joined challenges: %w", err)
	}
	return challenges, nil
}
