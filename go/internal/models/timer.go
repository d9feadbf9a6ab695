package models

import (
	"time"

	"github.com/google/uuid"
)

// TimerPhase describes the derived state of a room timer row.
type TimerPhase string

const (
	TimerPhaseIdle    TimerPhase = "IDLE"
	TimerPhasePaused  TimerPhase = "PAUSED"
	TimerPhaseRunning TimerPhase = "RUNNING"
	TimerPhaseExpired TimerPhase = "EXPIRED"
)

// TimerState is the single shared countdown row for a room. Exactly one of
// the following holds at a time: DeadlineAt set (running), DurationSeconds
// set with DeadlineAt nil (paused), or both empty (idle).
type TimerState struct {
	RoomID          uuid.UUID  `json:"room_id"`
	DeadlineAt      *time.Time `json:"deadline_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
}

// Phase derives the timer phase from the row and the given wall-clock time.
func (t *TimerState) Phase(now time.Time) TimerPhase {
	if t == nil {
		return TimerPhaseIdle
	}
	if t.DeadlineAt != nil {
		if !t.DeadlineAt.After(now) {
			return TimerPhaseExpired
		}
		return TimerPhaseRunning
	}
	if t.DurationSeconds != nil && *t.DurationSeconds > 0 {
		return TimerPhasePaused
	}
	return TimerPhaseIdle
}

// Remaining computes the time left on the countdown at the given wall-clock
// time. It is a pure function of the row: a running timer counts down to its
// deadline, a paused timer holds its stored duration, anything else is zero.
func (t *TimerState) Remaining(now time.Time) time.Duration {
	if t == nil {
		return 0
	}
	if t.DeadlineAt != nil {
		remaining := t.DeadlineAt.Sub(now)
		if remaining < 0 {
			return 0
		}
		return remaining
	}
	if t.DurationSeconds != nil && *t.DurationSeconds > 0 {
		return time.Duration(*t.DurationSeconds) * time.Second
	}
	return 0
}
