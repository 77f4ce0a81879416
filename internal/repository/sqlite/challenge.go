package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/urfit-server/internal/apperror"
	"github.com/sakif/urfit-server/internal/model"
	"github.com/sakif/urfit-server/internal/repository"
)

// compile-time check that *DB implements repository.ChallengeRepository
var _ repository.ChallengeRepository = (*DB)(nil)

const challengeColumns = `id, title, description, long_description, total_days,
	image_url, external_link, pdfs, participant_count, created_at, updated_at`

// Create inserts a new challenge. ID and timestamps are generated here and
// written back onto the struct. The PDF attachment list is stored as a JSON
// array in a TEXT column — it's opaque payload the server never queries into.
func (db *DB) Create(ctx context.Context, challenge *model.Challenge) error {
	now := time.Now()
	challenge.ID = xid.New().String()
	challenge.CreatedAt = now
	challenge.UpdatedAt = now
	challenge.ParticipantCount = 0
	if challenge.Participants == nil {
		challenge.Participants = []model.UserSummary{}
	}

	pdfs, err := encodePDFs(challenge.PDFs)
	if err != nil {
		return fmt.Errorf("sqlite: encoding pdf list: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO challenges (id, title, description, long_description, total_days,
		 image_url, external_link, pdfs, participant_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		challenge.ID,
		challenge.Title,
		challenge.Description,
		challenge.LongDescription,
		challenge.TotalDays,
		challenge.ImageURL,
		challenge.ExternalLink,
		pdfs,
		challenge.CreatedAt,
		challenge.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting challenge %q: %w", challenge.Title, err)
	}

	return nil
}

// GetByID retrieves a single challenge with its participant projections
// resolved. Returns apperror.ErrNotFound if the challenge doesn't exist.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Challenge, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)

	challenge, err := scanChallenge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("challenge", id)
		}
		return nil, fmt.Errorf("sqlite: getting challenge %s: %w", id, err)
	}

	if err := db.loadParticipants(ctx, challenge); err != nil {
		return nil, err
	}

	return challenge, nil
}

// List returns all challenges, newest first, each with its participant
// projections resolved.
func (db *DB) List(ctx context.Context) ([]model.Challenge, error) {
	return db.listChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges ORDER BY created_at DESC`)
}

// ListJoined returns the challenges the given user participates in.
//
// The membership table is the only source consulted — there is no
// joined-challenges column on the user row that could disagree with the
// participant lists.
func (db *DB) ListJoined(ctx context.Context, userID string) ([]model.Challenge, error) {
	return db.listChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE id IN (SELECT challenge_id FROM challenge_participants WHERE user_id = ?)
		 ORDER BY created_at DESC`,
		userID)
}

// Enroll adds the user to the challenge's participant set and refreshes the
// stored participant count, all inside one transaction.
//
// ATOMICITY:
// The membership INSERT and the count UPDATE commit together or not at all,
// so participant_count equals the membership cardinality at every commit
// point.
// SQLite serializes writers, and the composite primary key rejects the
// second of two concurrent inserts for the same (challenge, user) pair —
// the loser gets apperror.AlreadyEnrolled, the count moves by exactly one.
//
// The count is recomputed with COUNT(*) from the membership table rather
// than incremented, so even a manually edited database self-corrects on the
// next enrollment.
func (db *DB) Enroll(ctx context.Context, challengeID, userID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Unavailable(fmt.Sprintf("beginning enrollment transaction: %v", err))
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO challenge_participants (challenge_id, user_id, joined_at)
		 VALUES (?, ?, ?)`,
		challengeID, userID, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyEnrolled(userID, challengeID)
		}
		if isForeignKeyViolation(err) {
			// The challenge or user disappeared between the service's
			// existence check and this insert.
			return apperror.NotFound("challenge", challengeID)
		}
		return fmt.Errorf("sqlite: adding participant %s to challenge %s: %w", userID, challengeID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE challenges
		 SET participant_count = (SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = ?),
		     updated_at = ?
		 WHERE id = ?`,
		challengeID, time.Now(), challengeID,
	)
	if err != nil {
		// The deferred rollback undoes the membership insert. If even the
		// rollback fails the store may hold half an enrollment — report it
		// with both IDs for reconciliation instead of guessing.
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return apperror.PartialEnrollment(userID, challengeID)
		}
		return fmt.Errorf("sqlite: refreshing participant count for challenge %s: %w", challengeID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing enrollment of %s in %s: %w", userID, challengeID, err)
	}

	return nil
}

// listChallenges runs a multi-row challenge query and resolves participants
// for each result.
func (db *DB) listChallenges(ctx context.Context, query string, args ...any) ([]model.Challenge, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing challenges: %w", err)
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		challenge, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning challenge row: %w", err)
		}
		challenges = append(challenges, *challenge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating challenge rows: %w", err)
	}

	for i := range challenges {
		if err := db.loadParticipants(ctx, &challenges[i]); err != nil {
			return nil, err
		}
	}

	return challenges, nil
}

// loadParticipants fills in the challenge's participant projections
// (id, name, email) from the membership table, in join order.
func (db *DB) loadParticipants(ctx context.Context, challenge *model.Challenge) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.name, u.email
		 FROM challenge_participants cp
		 JOIN users u ON u.id = cp.user_id
		 WHERE cp.challenge_id = ?
		 ORDER BY cp.joined_at, u.id`,
		challenge.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading participants of challenge %s: %w", challenge.ID, err)
	}
	defer rows.Close()

	participants := []model.UserSummary{}
	for rows.Next() {
		var p model.UserSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return fmt.Errorf("sqlite: scanning participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating participant rows: %w", err)
	}

	challenge.Participants = participants
	return nil
}

// rowScanner lets scanChallenge work on both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*model.Challenge, error) {
	var c model.Challenge
	var pdfs string

	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.LongDescription,
		&c.TotalDays,
		&c.ImageURL,
		&c.ExternalLink,
		&pdfs,
		&c.ParticipantCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(pdfs), &c.PDFs); err != nil {
		return nil, fmt.Errorf("decoding pdf list of challenge %s: %w", c.ID, err)
	}
	if c.PDFs == nil {
		c.PDFs = []string{}
	}

	return &c, nil
}

func encodePDFs(pdfs []string) (string, error) {
	if pdfs == nil {
		pdfs = []string{}
	}
	encoded, err := json.Marshal(pdfs)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// isForeignKeyViolation reports whether err is a SQLite foreign key
// constraint failure (a membership row pointing at a missing user or
// challenge).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
