package room

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/rs/zerolog/log"
)

// sessionHandle tracks one room's session through startup. The handle goes
// into the map before Start runs so the lock is never held across the
// session's store reads; latecomers wait on ready instead.
type sessionHandle struct {
	ready   chan struct{}
	session *Session
	err     error
}

// Manager owns the live room sessions, creating one lazily when the first
// client attaches and tearing it down when the room empties. It implements
// gateway.SessionEvents; the broadcaster is injected after construction
// because the connection hub needs the manager first.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionHandle
	deps     SessionDeps
}

func NewManager(deps SessionDeps) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*sessionHandle),
		deps:     deps,
	}
}

// SetBroadcaster wires the push side in. Must be called before the first
// client attaches.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.deps.Broadcast = b
}

// Ensure returns the room's running session, starting one if needed. A slow
// start blocks only callers for the same room.
func (m *Manager) Ensure(ctx context.Context, roomID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	handle, ok := m.sessions[roomID]
	if !ok {
		handle = &sessionHandle{ready: make(chan struct{})}
		m.sessions[roomID] = handle
	}
	m.mu.Unlock()

	if ok {
		<-handle.ready
		return handle.session, handle.err
	}

	session := NewSession(roomID, m.deps)
	if err := session.Start(ctx); err != nil {
		handle.err = err
		close(handle.ready)
		// A failed start is not cached; the next attach retries.
		m.mu.Lock()
		if m.sessions[roomID] == handle {
			delete(m.sessions, roomID)
		}
		m.mu.Unlock()
		return nil, err
	}
	handle.session = session
	close(handle.ready)
	return session, nil
}

// ClientAttached sends the new client its full user-scoped snapshot.
func (m *Manager) ClientAttached(roomID, userID uuid.UUID) {
	ctx := context.Background()
	session, err := m.Ensure(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to start room session")
		m.deps.Broadcast.BroadcastToUser(roomID, userID,
			gateway.NewRoomEvent(roomID, gateway.EventTypeError, gateway.ErrorPayload{Message: "room unavailable"}))
		return
	}

	snapshot, err := session.Snapshot(ctx, userID)
	if err != nil {
		log.Error().Err(err).
			Str("room_id", roomID.String()).
			Str("user_id", userID.String()).
			Msg("failed to build snapshot")
		m.deps.Broadcast.BroadcastToUser(roomID, userID,
			gateway.NewRoomEvent(roomID, gateway.EventTypeError, gateway.ErrorPayload{Message: "failed to load room"}))
		return
	}
	m.deps.Broadcast.BroadcastToUser(roomID, userID,
		gateway.NewRoomEvent(roomID, gateway.EventTypeSnapshot, snapshot))
}

// ClientCommand routes a websocket message to the room's session.
func (m *Manager) ClientCommand(roomID, userID uuid.UUID, raw []byte) {
	m.mu.Lock()
	handle, ok := m.sessions[roomID]
	m.mu.Unlock()
	if !ok {
		log.Warn().Str("room_id", roomID.String()).Msg("command for room without session")
		return
	}
	<-handle.ready
	if handle.session == nil {
		log.Warn().Str("room_id", roomID.String()).Msg("command for room that failed to start")
		return
	}
	handle.session.HandleCommand(context.Background(), userID, raw)
}

// RoomEmptied stops and discards the session once its last client is gone.
func (m *Manager) RoomEmptied(roomID uuid.UUID) {
	m.mu.Lock()
	handle, ok := m.sessions[roomID]
	if ok {
		delete(m.sessions, roomID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	<-handle.ready
	if handle.session != nil {
		handle.session.Stop()
	}
}

// Shutdown stops every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	handles := make([]*sessionHandle, 0, len(m.sessions))
	for id, handle := range m.sessions {
		handles = append(handles, handle)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, handle := range handles {
		<-handle.ready
		if handle.session != nil {
			handle.session.Stop()
		}
	}
}
