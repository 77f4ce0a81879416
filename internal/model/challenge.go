package model

import "time"

// Challenge represents a fitness challenge users can enroll in.
//
// INVARIANT: ParticipantCount always equals len(Participants) as stored.
// The count is not maintained by incrementing — the repository recomputes it
// from the membership table inside the same transaction that adds a
// participant, so it can never drift even under concurrent enrollments.
//
// Participants holds the resolved projection (id, name, email) of every
// enrolled user. Callers use it to decide "already enrolled" status without
// re-deriving membership themselves.
type Challenge struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	LongDescription  string        `json:"longDescription"`
	TotalDays        int           `json:"totalDays"`
	ImageURL         string        `json:"imageUrl"`
	ExternalLink     string        `json:"externalLink"`
	PDFs             []string      `json:"pdfs"` // resource attachment URLs (may be empty)
	Participants     []UserSummary `json:"participants"`
	ParticipantCount int           `json:"participantCount"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// HasParticipant reports whether the user with the given ID is already
// enrolled, based on the resolved participant list.
func (c *Challenge) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
