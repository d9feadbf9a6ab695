package chat

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

// Repository owns the append-only chat log.
type Repository struct {
	client *store.Client
	events *feed.Repository
}

func NewRepository(client *store.Client, events *feed.Repository) *Repository {
	return &Repository{client: client, events: events}
}

// NormalizeBody trims surrounding whitespace from a message body. The
// second return is false when nothing remains to send.
func NormalizeBody(body string) (string, bool) {
	body = strings.TrimSpace(body)
	return body, body != ""
}

// Send normalizes the body and inserts a message. A body that trims to
// empty is a no-op: no row, no feed event, nil message returned.
func (r *Repository) Send(ctx context.Context, roomID, userID uuid.UUID, body string) (*models.ChatMessage, error) {
	body, ok := NormalizeBody(body)
	if !ok {
		return nil, nil
	}

	var msg models.ChatMessage
	err := r.client.RunTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO messages (room_id, user_id, body)
			 VALUES ($1, $2, $3)
			 RETURNING id, room_id, user_id, body, created_at`,
			roomID, userID, body,
		).Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Body, &msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return r.events.Append(ctx, tx, roomID, feed.TableMessages, feed.OpInsert, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &msg, nil
}

// History returns the room's full message log ordered by id ascending.
func (r *Repository) History(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	rows, err := r.client.Pool().Query(ctx,
		`SELECT id, room_id, user_id, body, created_at
		 FROM messages WHERE room_id = $1 ORDER BY id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message history: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
