package scores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/store"
)

// Repository owns per-member score rows. Adjustments are read-modify-write
// on purpose: concurrent deltas race and the last write wins, which the
// domain tolerates (see the room dispatcher's full refetch on echo).
type Repository struct {
	client *store.Client
	events *feed.Repository
}

func NewRepository(client *store.Client, events *feed.Repository) *Repository {
	return &Repository{client: client, events: events}
}

// Get returns the member's current score, zero if no row exists.
func (r *Repository) Get(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	var score int
	err := r.client.Pool().QueryRow(ctx,
		`SELECT score FROM room_scores WHERE room_id = $1 AND user_id = $2`,
		roomID, userID,
	).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get score: %w", err)
	}
	return score, nil
}

// Set upserts the member's score to an absolute value and reports the echo
// on the feed.
func (r *Repository) Set(ctx context.Context, roomID, userID uuid.UUID, score int) error {
	err := r.client.RunTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_scores (room_id, user_id, score)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (room_id, user_id) DO UPDATE SET score = EXCLUDED.score`,
			roomID, userID, score,
		); err != nil {
			return fmt.Errorf("failed to upsert score: %w", err)
		}
		entry := models.ScoreEntry{RoomID: roomID, UserID: userID, Score: score}
		return r.events.Append(ctx, tx, roomID, feed.TableScores, feed.OpUpdate, entry)
	})
	if err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}
	return nil
}

// Adjust reads the current score (zero if absent) and writes current+delta.
// Not a server-side atomic increment; two racing adjustments can lose one
// delta. Returns the value that was written.
func (r *Repository) Adjust(ctx context.Context, roomID, userID uuid.UUID, delta int) (int, error) {
	current, err := r.Get(ctx, roomID, userID)
	if err != nil {
		return 0, err
	}
	next := current + delta
	if err := r.Set(ctx, roomID, userID, next); err != nil {
		return 0, err
	}
	return next, nil
}

// FetchAll returns every score row for the room.
func (r *Repository) FetchAll(ctx context.Context, roomID uuid.UUID) ([]models.ScoreEntry, error) {
	rows, err := r.client.Pool().Query(ctx,
		`SELECT room_id, user_id, score FROM room_scores WHERE room_id = $1`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scores: %w", err)
	}
	defer rows.Close()

	var entries []models.ScoreEntry
	for rows.Next() {
		var e models.ScoreEntry
		if err := rows.Scan(&e.RoomID, &e.UserID, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}
	return entries, nil
}
