package members

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/store"
)

// Repository owns room membership rows. Every write appends the matching
// change-feed event in the same transaction.
type Repository struct {
	client *store.Client
	events *feed.Repository
}

func NewRepository(client *store.Client, events *feed.Repository) *Repository {
	return &Repository{client: client, events: events}
}

// Join upserts the membership row keyed by (room_id, user_id). Idempotent:
// a rejoin refreshes the username and leaves the roster length unchanged.
// The score reset that accompanies a join lives in the room service.
func (r *Repository) Join(ctx context.Context, roomID, userID uuid.UUID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "anonymous"
	}

	err := r.client.RunTx(ctx, func(tx pgx.Tx) error {
		var member models.Member
		err := tx.QueryRow(ctx,
			`INSERT INTO room_members (room_id, user_id, username)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (room_id, user_id) DO UPDATE SET username = EXCLUDED.username
			 RETURNING room_id, user_id, username, joined_at`,
			roomID, userID, username,
		).Scan(&member.RoomID, &member.UserID, &member.Username, &member.JoinedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert member: %w", err)
		}
		return r.events.Append(ctx, tx, roomID, feed.TableMembers, feed.OpInsert, member)
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	return nil
}

// Leave deletes the membership and score rows. No history is retained.
func (r *Repository) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	err := r.client.RunTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`,
			roomID, userID,
		); err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM room_scores WHERE room_id = $1 AND user_id = $2`,
			roomID, userID,
		); err != nil {
			return fmt.Errorf("failed to delete score: %w", err)
		}

		key := map[string]uuid.UUID{"user_id": userID}
		if err := r.events.Append(ctx, tx, roomID, feed.TableMembers, feed.OpDelete, key); err != nil {
			return err
		}
		return r.events.Append(ctx, tx, roomID, feed.TableScores, feed.OpDelete, key)
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

// List returns the room's members ordered by join time ascending, which
// keeps the display order stable across clients.
func (r *Repository) List(ctx context.Context, roomID uuid.UUID) ([]models.Member, error) {
	rows, err := r.client.Pool().Query(ctx,
		`SELECT room_id, user_id, username, joined_at
		 FROM room_members WHERE room_id = $1 ORDER BY joined_at ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.Username, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// IsMember reports whether the user currently belongs to the room.
func (r *Repository) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.client.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`,
		roomID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}
