package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one append-only chat row, ordered by ID ascending.
// Messages are never mutated or deleted.
type ChatMessage struct {
	ID        int64     `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
