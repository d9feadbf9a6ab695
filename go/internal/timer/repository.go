package timer

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

// Repository owns the single timer row per room. Writes are plain upserts;
// concurrent start/pause/resume from different members race at the store and
// the last commit wins.
type Repository struct {
	client *store.Client
	events *feed.Repository
}

func NewRepository(client *store.Client, events *feed.Repository) *Repository {
	return &Repository{client: client, events: events}
}

// Put upserts the room's timer row and reports it on the feed.
func (r *Repository) Put(ctx context.Context, state models.TimerState) error {
	err := r.client.RunTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO timers (room_id, deadline_at, duration_seconds)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (room_id) DO UPDATE
			 SET deadline_at = EXCLUDED.deadline_at, duration_seconds = EXCLUDED.duration_seconds`,
			state.RoomID, state.DeadlineAt, state.DurationSeconds,
		); err != nil {
			return fmt.Errorf("failed to upsert timer: %w", err)
		}
		return r.events.Append(ctx, tx, state.RoomID, feed.TableTimers, feed.OpUpdate, state)
	})
	if err != nil {
		return fmt.Errorf("failed to put timer: %w", err)
	}
	return nil
}

// Get returns the room's timer row, or nil when none exists.
func (r *Repository) Get(ctx context.Context, roomID uuid.UUID) (*models.TimerState, error) {
	var state models.TimerState
	err := r.client.Pool().QueryRow(ctx,
		`SELECT room_id, deadline_at, duration_seconds FROM timers WHERE room_id = $1`,
		roomID,
	).Scan(&state.RoomID, &state.DeadlineAt, &state.DurationSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}
	return &state, nil
}
