package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is identity plus display metadata. Rooms are created through the
// rooms API and never mutated by the sync engine.
type Room struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is one user's presence in a room, keyed by (room_id, user_id).
type Member struct {
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// ScoreEntry is a member's running score, keyed by (room_id, user_id).
// Seeded at zero on join, deleted on leave; no history is retained.
type ScoreEntry struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}
