package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/mcdev12/roomsync/go/internal/chat"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// ChatStore is the slice of chat persistence a session needs.
type ChatStore interface {
	Send(ctx context.Context, roomID, userID uuid.UUID, body string) (*models.ChatMessage, error)
	History(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error)
}

// ScoreStore extends the dispatcher's read view with writes.
type ScoreStore interface {
	ScoreFetcher
	Adjust(ctx context.Context, roomID, userID uuid.UUID, delta int) (int, error)
}

// MemberStore extends the dispatcher's read view with leave.
type MemberStore interface {
	MemberLister
	Leave(ctx context.Context, roomID, userID uuid.UUID) error
}

// Subscriber hands out a room's slice of the change feed.
type Subscriber interface {
	Subscribe(roomID uuid.UUID) (<-chan feed.Event, func(), error)
}

// SessionDeps bundles everything a session needs. All stores are shared
// across sessions; the per-room pieces are built by NewSession.
type SessionDeps struct {
	Members    MemberStore
	Scores     ScoreStore
	Chat       ChatStore
	Timers     timer.Store
	Rounds     RoundLoader
	Subscriber Subscriber
	Broadcast  Broadcaster
	Clock      clockwork.Clock
}

// Session owns one room's live view: it loads the initial state, consumes
// the room's change feed, runs the countdown tick loop, and executes
// websocket commands. One session per room per process.
type Session struct {
	roomID     uuid.UUID
	deps       SessionDeps
	state      *State
	timer      *timer.Engine
	dispatcher *Dispatcher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSession(roomID uuid.UUID, deps SessionDeps) *Session {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	state := NewState()
	engine := timer.NewEngine(roomID, deps.Timers, deps.Clock)
	return &Session{
		roomID:     roomID,
		deps:       deps,
		state:      state,
		timer:      engine,
		dispatcher: NewDispatcher(roomID, state, engine, deps.Members, deps.Scores, deps.Rounds, deps.Broadcast),
	}
}

// Start subscribes to the room's change feed, loads the current state, and
// launches the dispatch and tick loops. Callers stop the session with Stop.
func (s *Session) Start(ctx context.Context) error {
	// Subscribe before loading so a row committed during the load still
	// arrives as a feed event; the coarse refetch absorbs the overlap.
	events, unsubscribe, err := s.deps.Subscriber.Subscribe(s.roomID)
	if err != nil {
		return err
	}

	if err := s.loadInitialState(ctx); err != nil {
		unsubscribe()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.dispatcher.Run(runCtx, events)
	}()
	go func() {
		defer s.wg.Done()
		s.tickLoop(runCtx)
	}()

	log.Info().Str("room_id", s.roomID.String()).Msg("room session started")
	return nil
}

// Stop ends the loops and waits for them to drain.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Info().Str("room_id", s.roomID.String()).Msg("room session stopped")
}

func (s *Session) loadInitialState(ctx context.Context) error {
	memberRows, err := s.deps.Members.List(ctx, s.roomID)
	if err != nil {
		return err
	}
	s.state.SetMembers(memberRows)

	scoreRows, err := s.deps.Scores.FetchAll(ctx, s.roomID)
	if err != nil {
		return err
	}
	s.state.SetScores(scoreRows)

	history, err := s.deps.Chat.History(ctx, s.roomID)
	if err != nil {
		return err
	}
	s.state.SetMessages(history)

	timerRow, err := s.deps.Timers.Get(ctx, s.roomID)
	if err != nil {
		return err
	}
	s.timer.SetRow(timerRow)

	round, err := s.deps.Rounds.CurrentRound(ctx, s.roomID)
	if err != nil {
		return err
	}
	s.state.SetRound(round)
	return nil
}

// tickLoop drives the countdown. The expiry signal fires exactly once per
// started timer, when the remaining time first reaches zero.
func (s *Session) tickLoop(ctx context.Context) {
	ticker := s.deps.Clock.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if s.timer.Tick() {
				s.deps.Broadcast.BroadcastToRoom(s.roomID,
					gateway.NewRoomEvent(s.roomID, gateway.EventTypeTimerExpired, timerPayload(s.timer)))
			}
		}
	}
}

// HandleCommand executes one websocket command on behalf of a user.
// Failures go back to that user alone as an Error event; the shared view is
// only ever advanced by the change feed (scores being the one optimistic
// exception).
func (s *Session) HandleCommand(ctx context.Context, userID uuid.UUID, raw []byte) {
	var cmd gateway.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.sendError(userID, "malformed command")
		return
	}

	var err error
	switch cmd.Type {
	case gateway.CommandTimerStart:
		var start gateway.TimerStartCommand
		if err = json.Unmarshal(cmd.Data, &start); err == nil {
			err = s.timer.Start(ctx, start.TotalSeconds)
		}
	case gateway.CommandTimerPause:
		err = s.timer.Pause(ctx)
	case gateway.CommandTimerResume:
		err = s.timer.Resume(ctx)
	case gateway.CommandChatSend:
		var send gateway.ChatSendCommand
		if err = json.Unmarshal(cmd.Data, &send); err == nil {
			// A body that trims to empty never reaches the store.
			if body, ok := chat.NormalizeBody(send.Body); ok {
				_, err = s.deps.Chat.Send(ctx, s.roomID, userID, body)
			}
		}
	case gateway.CommandScoreAdjust:
		var adjust gateway.ScoreAdjustCommand
		if err = json.Unmarshal(cmd.Data, &adjust); err == nil {
			err = s.adjustScore(ctx, adjust.UserID, adjust.Delta)
		}
	case gateway.CommandRoomLeave:
		err = s.deps.Members.Leave(ctx, s.roomID, userID)
	default:
		s.sendError(userID, "unknown command")
		return
	}

	if err != nil {
		log.Warn().Err(err).
			Str("room_id", s.roomID.String()).
			Str("user_id", userID.String()).
			Str("command", string(cmd.Type)).
			Msg("command failed")
		s.sendError(userID, apperror.MessageOf(err))
	}
}

// adjustScore applies the delta optimistically to the local board, pushes
// it, then persists. A failed write rolls the board back to the canonical
// rows before reporting the error.
func (s *Session) adjustScore(ctx context.Context, userID uuid.UUID, delta int) error {
	s.state.ApplyScore(userID, s.state.Score(userID)+delta)
	s.deps.Broadcast.BroadcastToRoom(s.roomID,
		gateway.NewRoomEvent(s.roomID, gateway.EventTypeScores, gateway.ScoresPayload{Scores: s.state.Scores()}))

	written, err := s.deps.Scores.Adjust(ctx, s.roomID, userID, delta)
	if err != nil {
		if rows, fetchErr := s.deps.Scores.FetchAll(ctx, s.roomID); fetchErr == nil {
			s.state.SetScores(rows)
			s.deps.Broadcast.BroadcastToRoom(s.roomID,
				gateway.NewRoomEvent(s.roomID, gateway.EventTypeScores, gateway.ScoresPayload{Scores: s.state.Scores()}))
		}
		return err
	}
	// Reconcile with the written value; the feed echo confirms it shortly.
	s.state.ApplyScore(userID, written)
	return nil
}

// Snapshot builds the user-scoped full room view sent on attach. The role
// block depends on who is asking; everything else is shared.
func (s *Session) Snapshot(ctx context.Context, userID uuid.UUID) (*gateway.SnapshotPayload, error) {
	snapshot := &gateway.SnapshotPayload{
		Members:  s.state.Members(),
		Scores:   s.state.Scores(),
		Messages: s.state.Messages(),
	}

	if s.timer.Row() != nil {
		payload := timerPayload(s.timer)
		snapshot.Timer = &payload
	}

	if round := s.state.Round(); round != nil {
		snapshot.Round = &gateway.RoundPayload{
			RoundID:   round.ID,
			CreatedBy: round.CreatedBy.String(),
			CreatedAt: round.CreatedAt,
		}
		role, err := rolePayload(ctx, s.deps.Rounds, round, userID)
		if err != nil {
			return nil, err
		}
		snapshot.Role = &role
	}
	return snapshot, nil
}

func (s *Session) sendError(userID uuid.UUID, message string) {
	s.deps.Broadcast.BroadcastToUser(s.roomID, userID,
		gateway.NewRoomEvent(s.roomID, gateway.EventTypeError, gateway.ErrorPayload{Message: message}))
}
