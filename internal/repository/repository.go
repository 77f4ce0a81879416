// Package repository defines the storage contracts the service layer
// programs against. The sqlite subpackage provides the concrete
// implementation; tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/urfit-server/internal/model"
)

// UserRepository stores user accounts.
//
// Method names carry the User prefix because the sqlite implementation
// satisfies this interface and ChallengeRepository on the same type.
type UserRepository interface {
	// CreateUser inserts a new user, generating its ID and timestamps.
	// Returns a conflict error if the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByID returns the user with the given internal ID, or a
	// not-found error.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// GetUserByEmail returns the user registered under the given email,
	// or a not-found error. Used by login.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// ListUsers returns all accounts, ordered by registration time. Used
	// by coordinators to pick enrollment targets.
	ListUsers(ctx context.Context) ([]model.User, error)
}

// ChallengeRepository stores challenges and their memberships.
//
// Membership is a single set keyed by (challenge, user): the participant
// list of a challenge and the joined-challenge list of a user are two reads
// of the same relation, so they cannot diverge.
type ChallengeRepository interface {
	// Create inserts a new challenge, generating its ID and timestamps.
	Create(ctx context.Context, challenge *model.Challenge) error

	// GetByID returns the challenge with participants resolved to
	// UserSummary projections, or a not-found error.
	GetByID(ctx context.Context, id string) (*model.Challenge, error)

	// List returns all challenges with resolved participant projections.
	List(ctx context.Context) ([]model.Challenge, error)

	// ListJoined returns the challenges the given user participates in,
	// with resolved participant projections.
	ListJoined(ctx context.Context, userID string) ([]model.Challenge, error)

	// Enroll atomically adds the user to the challenge's participant set
	// and recomputes the participant count. It is the single transition
	// both self-join and coordinator enrollment go through.
	//
	// Guarantees:
	//   - If the user is already a participant, a conflict error is
	//     returned and nothing changes. Two concurrent calls for the same
	//     pair serialize: exactly one succeeds.
	//   - Both the membership row and the count are committed together or
	//     not at all. A half-applied state that cannot be rolled back is
	//     reported as a partial-enrollment error carrying both IDs.
	Enroll(ctx context.Context, challengeID, userID string) error
}
