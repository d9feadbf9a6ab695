package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/roomsync/go/internal/store"
	"github.com/sqlc-dev/pqtype"
)

// Repository persists the room_events change log. Domain repositories append
// events inside the same transaction as the row they describe; a database
// trigger NOTIFYs the listener with the event id on commit.
type Repository struct {
	client *store.Client
}

func NewRepository(client *store.Client) *Repository {
	return &Repository{client: client}
}

// Append records a change event within tx. The payload may be nil when the
// consumer is expected to refetch rather than patch.
func (r *Repository) Append(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, table Table, op Op, payload any) error {
	var raw pqtype.NullRawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal feed payload: %w", err)
		}
		raw = pqtype.NullRawMessage{RawMessage: data, Valid: true}
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO room_events (id, room_id, table_name, op, payload) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), roomID, string(table), string(op), raw,
	)
	if err != nil {
		return fmt.Errorf("failed to append feed event: %w", err)
	}
	return nil
}

// FetchByID loads a single event by id, sent or not.
func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.client.Pool().QueryRow(ctx,
		`SELECT id, room_id, table_name, op, payload, created_at FROM room_events WHERE id = $1`,
		id,
	)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("feed event %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch feed event: %w", err)
	}
	return ev, nil
}

// FetchUnsent returns events that were never marked sent, oldest first.
// Backstop for notifications lost while the listener was reconnecting.
func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]Event, error) {
	rows, err := r.client.Pool().Query(ctx,
		`SELECT id, room_id, table_name, op, payload, created_at
		 FROM room_events WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent feed events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed events: %w", err)
	}
	return events, nil
}

// MarkSent stamps an event as delivered to the broker.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.client.Pool().Exec(ctx,
		`UPDATE room_events SET sent_at = now() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to mark feed event as sent: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (*Event, error) {
	var (
		ev      Event
		table   string
		op      string
		payload pqtype.NullRawMessage
	)
	if err := row.Scan(&ev.ID, &ev.RoomID, &table, &op, &payload, &ev.CreatedAt); err != nil {
		return nil, err
	}
	ev.Table = Table(table)
	ev.Op = Op(op)
	if payload.Valid {
		ev.Payload = json.RawMessage(payload.RawMessage)
	}
	return &ev, nil
}
