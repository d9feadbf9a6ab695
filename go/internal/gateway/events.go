package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/models"
)

// RoomEvent is the envelope pushed to websocket clients.
type RoomEvent struct {
	ID        string          `json:"id"`        // Event UUID
	RoomID    string          `json:"room_id"`   // Room UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of room event.
type EventType string

const (
	EventTypeSnapshot     EventType = "Snapshot"
	EventTypeMembers      EventType = "MembersChanged"
	EventTypeScores       EventType = "ScoresChanged"
	EventTypeMessage      EventType = "MessageReceived"
	EventTypeTimer        EventType = "TimerChanged"
	EventTypeTimerExpired EventType = "TimerExpired"
	EventTypeRound        EventType = "RoundStarted"
	EventTypeRole         EventType = "RoleAssigned"
	EventTypeError        EventType = "Error"
)

// NewRoomEvent wraps a payload into the push envelope. Marshal failures are
// programming errors on our own types and surface as an Error event.
func NewRoomEvent(roomID uuid.UUID, eventType EventType, payload any) *RoomEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{"message":"internal error"}`)
		eventType = EventTypeError
	}
	return &RoomEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID.String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// MembersPayload carries the full membership list after any change.
type MembersPayload struct {
	Members []models.Member `json:"members"`
}

// ScoresPayload carries the full score board after any change.
type ScoresPayload struct {
	Scores map[string]int `json:"scores"`
}

// TimerPayload mirrors the timer row plus derived fields so clients can run
// their own visual countdown between pushes.
type TimerPayload struct {
	DeadlineAt      *time.Time        `json:"deadline_at,omitempty"`
	DurationSeconds *int              `json:"duration_seconds,omitempty"`
	RemainingMS     int64             `json:"remaining_ms"`
	Phase           models.TimerPhase `json:"phase"`
}

// RoundPayload announces a new round without revealing the topic; each
// member learns their own role via a user-scoped RolePayload.
type RoundPayload struct {
	RoundID   int64     `json:"round_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// RolePayload is user-scoped: the topic is present only for roles allowed
// to see it.
type RolePayload struct {
	RoundID int64       `json:"round_id"`
	Role    models.Role `json:"role"`
	Topic   *string     `json:"topic"`
}

// SnapshotPayload is the full user-scoped room view sent on attach.
type SnapshotPayload struct {
	Members  []models.Member      `json:"members"`
	Scores   map[string]int       `json:"scores"`
	Messages []models.ChatMessage `json:"messages"`
	Timer    *TimerPayload        `json:"timer,omitempty"`
	Round    *RoundPayload        `json:"round,omitempty"`
	Role     *RolePayload         `json:"role,omitempty"`
}

// ErrorPayload carries a user-facing failure message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Command is a client-issued room action received over the websocket.
type Command struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type CommandType string

const (
	CommandTimerStart  CommandType = "timer.start"
	CommandTimerPause  CommandType = "timer.pause"
	CommandTimerResume CommandType = "timer.resume"
	CommandChatSend    CommandType = "chat.send"
	CommandScoreAdjust CommandType = "score.adjust"
	CommandRoomLeave   CommandType = "room.leave"
)

// TimerStartCommand starts a countdown of the given total seconds.
type TimerStartCommand struct {
	TotalSeconds int `json:"total_seconds"`
}

type ChatSendCommand struct {
	Body string `json:"body"`
}

type ScoreAdjustCommand struct {
	UserID uuid.UUID `json:"user_id"`
	Delta  int       `json:"delta"`
}
