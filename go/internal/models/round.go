package models

import (
	"time"

	"github.com/google/uuid"
)

// Role defines a member's part in a round.
type Role string

const (
	RolePresenter Role = "presenter"
	RoleInsider   Role = "insider"
	RoleCommon    Role = "common"

	// RoleUnresolved means no assignment row exists yet for the user, which
	// readers treat as "no role", never as corruption. A round's role rows
	// are inserted after the round row and can be observed mid-flight.
	RoleUnresolved Role = ""
)

// CanSeeTopic reports whether the role is allowed to read the round topic.
func (r Role) CanSeeTopic() bool {
	return r == RolePresenter || r == RoleInsider
}

// Round is one topic plus a role assignment for all members present at
// issue time. Immutable once created; the room's current round is the one
// with the latest creation time.
type Round struct {
	ID        int64     `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	Topic     string    `json:"topic"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleAssignment binds one member to a role for one round. Immutable.
type RoleAssignment struct {
	RoundID int64     `json:"round_id"`
	UserID  uuid.UUID `json:"user_id"`
	Role    Role      `json:"role"`
}
