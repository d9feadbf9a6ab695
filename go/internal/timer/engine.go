package timer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomsync/go/internal/models"
)

// Store defines what the engine needs from the timer persistence layer.
type Store interface {
	Put(ctx context.Context, state models.TimerState) error
	Get(ctx context.Context, roomID uuid.UUID) (*models.TimerState, error)
}

// Engine drives one room's shared countdown. The persisted row is the
// canonical state; the engine's local copy is whatever the change feed last
// echoed, plus a once-per-running-period flag so the expiry signal fires
// exactly once. All writes go through the store and become visible to every
// client (this one included) via the feed.
type Engine struct {
	roomID uuid.UUID
	store  Store
	clock  clockwork.Clock

	mu    sync.Mutex
	row   *models.TimerState
	fired bool
}

func NewEngine(roomID uuid.UUID, store Store, clock clockwork.Clock) *Engine {
	return &Engine{
		roomID: roomID,
		store:  store,
		clock:  clock,
	}
}

// Start begins a countdown of totalSeconds. A non-positive total clears the
// timer to idle instead, matching a "start at zero" tap on the controls.
func (e *Engine) Start(ctx context.Context, totalSeconds int) error {
	state := models.TimerState{RoomID: e.roomID}
	if totalSeconds > 0 {
		deadline := e.clock.Now().Add(time.Duration(totalSeconds) * time.Second)
		state.DeadlineAt = &deadline
		state.DurationSeconds = &totalSeconds
	} else {
		zero := 0
		state.DurationSeconds = &zero
	}

	if err := e.store.Put(ctx, state); err != nil {
		return err
	}
	e.resetFired()
	return nil
}

// Pause freezes a running countdown, storing the remaining whole seconds
// (rounded up) and clearing the deadline. Meaningful only while running;
// with no row it is a no-op.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	row := e.row
	e.mu.Unlock()
	if row == nil {
		return nil
	}

	remaining := int(math.Ceil(row.Remaining(e.clock.Now()).Seconds()))
	if remaining < 0 {
		remaining = 0
	}
	state := models.TimerState{RoomID: e.roomID, DurationSeconds: &remaining}
	return e.store.Put(ctx, state)
}

// Resume restarts a paused countdown from its stored duration. Meaningful
// only while paused with time left; otherwise a no-op.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	row := e.row
	e.mu.Unlock()
	if row == nil || row.DeadlineAt != nil || row.DurationSeconds == nil || *row.DurationSeconds <= 0 {
		return nil
	}

	seconds := *row.DurationSeconds
	deadline := e.clock.Now().Add(time.Duration(seconds) * time.Second)
	state := models.TimerState{RoomID: e.roomID, DeadlineAt: &deadline, DurationSeconds: &seconds}
	if err := e.store.Put(ctx, state); err != nil {
		return err
	}
	e.resetFired()
	return nil
}

// Remaining recomputes the countdown from the last echoed row and the wall
// clock. Pure; never blocks and never writes.
func (e *Engine) Remaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.row.Remaining(e.clock.Now())
}

// Phase derives the current timer phase from the last echoed row.
func (e *Engine) Phase() models.TimerPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.row.Phase(e.clock.Now())
}

// Row returns a copy of the last echoed row, or nil if none arrived yet.
func (e *Engine) Row() *models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.row == nil {
		return nil
	}
	row := *e.row
	return &row
}

// SetRow replaces the local row with what the change feed delivered and
// re-arms the expiry signal. Every row change re-arms it, so a fresh start,
// pause, or resume can trigger the signal again.
func (e *Engine) SetRow(row *models.TimerState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.row = row
	e.fired = false
}

// Tick checks the countdown against the clock and reports true exactly once
// per running period, at the moment remaining hits zero. Called on the
// session's local tick; a clear-to-idle row (duration zero) never fires.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.row == nil || e.fired {
		return false
	}
	if e.row.DurationSeconds == nil || *e.row.DurationSeconds <= 0 {
		return false
	}
	if e.row.Remaining(e.clock.Now()) > 0 {
		return false
	}
	e.fired = true
	return true
}

func (e *Engine) resetFired() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fired = false
}
