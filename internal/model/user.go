// Package model defines the data structures used throughout the application.
package model

import "time"

// Role determines what a user is allowed to do.
//
// WHY A NAMED TYPE (not a bare string)?
// A named type makes the valid values discoverable (the constants below) and
// lets the compiler catch accidental mixups like passing an email where a
// role was expected. The role travels inside the JWT, so it is validated
// again at token-decode time — a token carrying an unknown role is rejected
// as an invalid credential, never silently treated as a member.
type Role string

const (
	// RoleMember is the default role assigned at registration.
	// Members can browse challenges and join them on their own behalf.
	RoleMember Role = "member"

	// RoleCoordinator is the privileged role. Coordinators can create
	// challenges and enroll arbitrary users into them.
	RoleCoordinator Role = "coordinator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleCoordinator
}

// User represents a registered account.
//
// WHY PasswordHash HAS json:"-"?
// The bcrypt hash must never leave the server, not even in an error response
// or a debug dump of the struct. Tagging it `json:"-"` makes the JSON encoder
// skip it entirely, so a handler cannot leak it by accident.
//
// Membership note: a user's joined challenges are NOT stored on this struct.
// Membership lives in a single join table (challenge_participants) and both
// "which challenges has this user joined" and "who participates in this
// challenge" are read from it. That makes the two views structurally
// incapable of disagreeing with each other.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the minimal projection of a user embedded in challenge
// responses (the participant list). Only id, name and email — enough for the
// UI to render a participant row without a second lookup, and nothing
// sensitive.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the participant projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
