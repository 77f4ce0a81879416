// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → authorizes, validates, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and claims, not HTTP types, and return domain
// errors from the apperror package — the handler translates those to status
// codes. Services receive repository interfaces, so tests swap in in-memory
// mocks without touching SQLite.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/urfit-server/internal/apperror"
	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/model"
	"github.com/sakif/urfit-server/internal/repository"
)

// EnrollmentService is the enrollment engine: it owns the only two paths by
// which a user becomes a participant of a challenge.
//
// Both paths — self-join and coordinator-directed enrollment — go through
// one shared transition (the repository's atomic Enroll), so the membership
// invariants hold regardless of entry point. Only the authorization
// predicate differs: anyone authenticated may join themselves; only a
// coordinator may enroll someone else.
//
// There is no reverse transition. Un-enrollment is deliberately not exposed.
type EnrollmentService struct {
	users      repository.UserRepository
	challenges repository.ChallengeRepository
	logger     *slog.Logger
}

// NewEnrollmentService creates an EnrollmentService.
func NewEnrollmentService(
	users repository.UserRepository,
	challenges repository.ChallengeRepository,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		users:      users,
		challenges: challenges,
		logger:     logger,
	}
}

// SelfJoin enrolls the requester into the challenge.
//
// Authorization: any valid claim — members join challenges themselves.
// Preconditions: the challenge must exist (not-found otherwise).
// Idempotency: a requester who is already a participant gets an
// already-enrolled conflict and no mutation.
//
// On success the updated challenge is returned, with the requester present
// in the participant list and the count advanced by exactly one.
func (s *EnrollmentService) SelfJoin(ctx context.Context, claim auth.Claim, challengeID string) (*model.Challenge, error) {
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return nil, apperror.ValidationFailed("challengeId", "challenge ID is required")
	}

	// Existence check first so a missing challenge reads as "not found",
	// not as a constraint failure from the membership insert.
	if _, err := s.challenges.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}

	if err := s.enroll(ctx, claim.UserID, challengeID); err != nil {
		return nil, err
	}

	// Re-read so the caller gets the post-transition participant list and
	// count instead of re-deriving them.
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("service/enrollment: reloading challenge %s after join: %w", challengeID, err)
	}

	return challenge, nil
}

// EnrollUser enrolls an arbitrary user into a challenge on a coordinator's
// behalf.
//
// Authorization comes first and alone decides access: a non-coordinator
// claim is rejected with a forbidden error before any lookup, so the caller
// learns nothing about which users or challenges exist. After the gate, the
// target user is checked, then the challenge, then the same shared
// transition as SelfJoin runs.
func (s *EnrollmentService) EnrollUser(ctx context.Context, claim auth.Claim, userID, challengeID string) error {
	if !claim.IsCoordinator() {
		return apperror.Forbidden("access denied")
	}

	userID = strings.TrimSpace(userID)
	challengeID = strings.TrimSpace(challengeID)
	if userID == "" {
		return apperror.ValidationFailed("userId", "user ID is required")
	}
	if challengeID == "" {
		return apperror.ValidationFailed("challengeId", "challenge ID is required")
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.challenges.GetByID(ctx, challengeID); err != nil {
		return err
	}

	if err := s.enroll(ctx, userID, challengeID); err != nil {
		return err
	}

	s.logger.Info("coordinator enrolled user",
		slog.String("coordinatorID", claim.UserID),
		slog.String("userID", userID),
		slog.String("challengeID", challengeID),
	)

	return nil
}

// enroll is the single transition shared by both entry points. The
// repository applies it atomically: membership row and participant count
// commit together, and a duplicate attempt surfaces as already-enrolled
// without mutating anything.
func (s *EnrollmentService) enroll(ctx context.Context, userID, challengeID string) error {
	if err := s.challenges.Enroll(ctx, challengeID, userID); err != nil {
		// Partial enrollments are the one failure mode that must never be
		// dropped silently — log loudly with both IDs for reconciliation.
		if errors.Is(err, apperror.ErrPartialEnrollment) {
			s.logger.Error("enrollment partially applied",
				slog.String("userID", userID),
				slog.String("challengeID", challengeID),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	s.logger.Info("user enrolled",
		slog.String("userID", userID),
		slog.String("challengeID", challengeID),
	)
	return nil
}
