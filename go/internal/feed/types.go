package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Table names the store table a change event originated from. The set is
// closed; dispatchers handle each pair of (Table, Op) exhaustively and drop
// anything outside it.
type Table string

const (
	TableMembers  Table = "room_members"
	TableScores   Table = "room_scores"
	TableTimers   Table = "timers"
	TableRounds   Table = "rounds"
	TableRoles    Table = "round_roles"
	TableMessages Table = "messages"
)

// Op is the row-level operation an event reports.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is one row-level change notification. Payload carries the affected
// row (or the key columns for deletes) as JSON; consumers that only refetch
// may ignore it. Within one table, delivery order matches commit order; no
// ordering is guaranteed across tables.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	RoomID    uuid.UUID       `json:"room_id"`
	Table     Table           `json:"table"`
	Op        Op              `json:"op"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Subject returns the NATS subject carrying a room's feed.
func Subject(roomID uuid.UUID) string {
	return fmt.Sprintf("rooms.feed.%s", roomID)
}
