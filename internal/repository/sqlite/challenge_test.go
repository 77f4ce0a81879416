package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sakif/urfit-server/internal/apperror"
	"github.com/sakif/urfit-server/internal/model"
)

// createTestChallenge creates a challenge and fails the test if it errors.
func createTestChallenge(t *testing.T, db *DB, title string) *model.Challenge {
	t.Helper()
	challenge := &model.Challenge{
		Title:       title,
		Description: "a short description",
		TotalDays:   30,
	}
	if err := db.Create(context.Background(), challenge); err != nil {
		t.Fatalf("failed to create test challenge: %v", err)
	}
	return challenge
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestChallengeCreate(t *testing.T) {
	db := newTestDB(t)

	challenge := &model.Challenge{
		Title:           "30-Day Plank",
		Description:     "A plank a day",
		LongDescription: "Hold a plank every day for 30 days, increasing duration weekly.",
		TotalDays:       30,
		ImageURL:        "https://img.example.com/plank.png",
		ExternalLink:    "https://example.com/plank-guide",
		PDFs:            []string{"https://files.example.com/plank.pdf"},
	}

	if err := db.Create(context.Background(), challenge); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if challenge.ID == "" {
		t.Error("Create() did not set challenge.ID")
	}
	if challenge.ParticipantCount != 0 {
		t.Errorf("new challenge participant count = %d, want 0", challenge.ParticipantCount)
	}
}

func TestChallengeGetByID_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	created := createTestChallenge(t, db, "30-Day Plank")

	got, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "30-Day Plank" {
		t.Errorf("GetByID() title = %q, want %q", got.Title, "30-Day Plank")
	}
	if got.TotalDays != 30 {
		t.Errorf("GetByID() totalDays = %d, want 30", got.TotalDays)
	}
	if got.Participants == nil {
		t.Error("GetByID() participants must be an empty slice, not nil")
	}
	if got.PDFs == nil {
		t.Error("GetByID() pdfs must be an empty slice, not nil")
	}
}

func TestChallengeGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "no-such-challenge")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() for missing challenge should be not-found, got %v", err)
	}
}

func TestChallengeList(t *testing.T) {
	db := newTestDB(t)
	createTestChallenge(t, db, "Plank")
	createTestChallenge(t, db, "Couch to 5K")

	challenges, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(challenges) != 2 {
		t.Fatalf("List() returned %d challenges, want 2", len(challenges))
	}
}

// =========================================================================
// ENROLL TESTS
// =========================================================================

func TestEnroll(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Alex", "alex@example.com")
	challenge := createTestChallenge(t, db, "Plank")

	if err := db.Enroll(context.Background(), challenge.ID, user.ID); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), challenge.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ParticipantCount != 1 {
		t.Errorf("participant count = %d, want 1", got.ParticipantCount)
	}
	if len(got.Participants) != 1 || got.Participants[0].ID != user.ID {
		t.Errorf("participants = %+v, want exactly [%s]", got.Participants, user.ID)
	}
	// The projection carries name and email, nothing more sensitive.
	if got.Participants[0].Name != "Alex" || got.Participants[0].Email != "alex@example.com" {
		t.Errorf("participant projection = %+v", got.Participants[0])
	}
}

func TestEnroll_Twice(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Alex", "alex@example.com")
	challenge := createTestChallenge(t, db, "Plank")

	if err := db.Enroll(context.Background(), challenge.ID, user.ID); err != nil {
		t.Fatalf("first Enroll() error = %v", err)
	}

	err := db.Enroll(context.Background(), challenge.ID, user.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Enroll() should conflict, got %v", err)
	}

	// No mutation: count and membership unchanged.
	got, _ := db.GetByID(context.Background(), challenge.ID)
	if got.ParticipantCount != 1 || len(got.Participants) != 1 {
		t.Errorf("after duplicate enroll: count=%d participants=%d, want 1/1",
			got.ParticipantCount, len(got.Participants))
	}
}

func TestEnroll_MissingChallenge(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Alex", "alex@example.com")

	err := db.Enroll(context.Background(), "no-such-challenge", user.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Enroll() into missing challenge should be not-found, got %v", err)
	}
}

// Invariant check: count always equals cardinality, and membership is
// visible from both directions (participants and joined list).
func TestEnroll_CountMatchesCardinality(t *testing.T) {
	db := newTestDB(t)
	challenge := createTestChallenge(t, db, "Plank")

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for i, email := range emails {
		user := createTestUser(t, db, email, email)
		if err := db.Enroll(context.Background(), challenge.ID, user.ID); err != nil {
			t.Fatalf("Enroll() #%d error = %v", i, err)
		}

		got, err := db.GetByID(context.Background(), challenge.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.ParticipantCount != len(got.Participants) {
			t.Fatalf("count %d != |participants| %d after enroll #%d",
				got.ParticipantCount, len(got.Participants), i)
		}
		if got.ParticipantCount != i+1 {
			t.Fatalf("count = %d after enroll #%d, want %d", got.ParticipantCount, i, i+1)
		}

		joined, err := db.ListJoined(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("ListJoined() error = %v", err)
		}
		if len(joined) != 1 || joined[0].ID != challenge.ID {
			t.Fatalf("ListJoined() = %+v, want exactly the enrolled challenge", joined)
		}
	}
}

// Concurrency: two simultaneous enrolls for the same never-enrolled pair
// must produce exactly one membership row — one call succeeds, the other
// observes the conflict, and the count lands on 1.
func TestEnroll_ConcurrentSamePair(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Alex", "alex@example.com")
	challenge := createTestChallenge(t, db, "Plank")

	const attempts = 2
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = db.Enroll(context.Background(), challenge.ID, user.ID)
		}()
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected enroll error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly 1 of each", successes, conflicts)
	}

	got, err := db.GetByID(context.Background(), challenge.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ParticipantCount != 1 || len(got.Participants) != 1 {
		t.Fatalf("after concurrent enrolls: count=%d participants=%d, want 1/1",
			got.ParticipantCount, len(got.Participants))
	}
}

// =========================================================================
// LIST JOINED TESTS
// =========================================================================

func TestListJoined_Empty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Alex", "alex@example.com")
	createTestChallenge(t, db, "Plank")

	joined, err := db.ListJoined(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListJoined() error = %v", err)
	}
	if len(joined) != 0 {
		t.Errorf("ListJoined() = %d challenges, want 0", len(joined))
	}
}

func TestListJoined_OnlyJoinedChallenges(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Alex", "alex@example.com")
	joinedChallenge := createTestChallenge(t, db, "Plank")
	createTestChallenge(t, db, "Couch to 5K") // not joined

	if err := db.Enroll(context.Background(), joinedChallenge.ID, user.ID); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	joined, err := db.ListJoined(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListJoined() error = %v", err)
	}
	if len(joined) != 1 || joined[0].ID != joinedChallenge.ID {
		t.Fatalf("ListJoined() = %+v, want exactly the joined challenge", joined)
	}
}
