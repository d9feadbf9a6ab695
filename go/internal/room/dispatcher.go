package room

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// Broadcaster pushes state to a room's websocket clients.
type Broadcaster interface {
	BroadcastToRoom(roomID uuid.UUID, event *gateway.RoomEvent)
	BroadcastToUser(roomID, userID uuid.UUID, event *gateway.RoomEvent)
	UsersInRoom(roomID uuid.UUID) []uuid.UUID
}

// MemberLister is the slice of the membership registry the dispatcher needs.
type MemberLister interface {
	List(ctx context.Context, roomID uuid.UUID) ([]models.Member, error)
}

// ScoreFetcher is the slice of the score board the dispatcher needs.
type ScoreFetcher interface {
	FetchAll(ctx context.Context, roomID uuid.UUID) ([]models.ScoreEntry, error)
}

// RoundLoader resolves rounds and per-user visibility for feed echoes.
type RoundLoader interface {
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	CurrentRound(ctx context.Context, roomID uuid.UUID) (*models.Round, error)
	RoleOf(ctx context.Context, roundID int64, userID uuid.UUID) (models.Role, error)
	VisibleTopic(ctx context.Context, round *models.Round, userID uuid.UUID) (*string, error)
}

// Dispatcher routes one room's change-feed events into the local view.
// Invalidation is coarse on purpose: membership and score events trigger a
// full refetch, only chat patches a single row. A refetch that fails leaves
// the previous view standing; a background refresh must never tear down the
// room.
type Dispatcher struct {
	roomID    uuid.UUID
	state     *State
	timer     *timer.Engine
	members   MemberLister
	scores    ScoreFetcher
	rounds    RoundLoader
	broadcast Broadcaster
}

func NewDispatcher(roomID uuid.UUID, state *State, timerEngine *timer.Engine, members MemberLister, scores ScoreFetcher, rounds RoundLoader, broadcast Broadcaster) *Dispatcher {
	return &Dispatcher{
		roomID:    roomID,
		state:     state,
		timer:     timerEngine,
		members:   members,
		scores:    scores,
		rounds:    rounds,
		broadcast: broadcast,
	}
}

// Run consumes feed events until the context ends or the channel closes.
func (d *Dispatcher) Run(ctx context.Context, events <-chan feed.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			d.HandleEvent(ctx, event)
		}
	}
}

type roundKeyPayload struct {
	ID int64 `json:"id"`
}

type roleKeyPayload struct {
	RoundID int64 `json:"round_id"`
}

// HandleEvent routes a single event by its (table, op) pair. Shapes outside
// the known set are logged and dropped rather than trusted.
func (d *Dispatcher) HandleEvent(ctx context.Context, event feed.Event) {
	switch {
	case event.Table == feed.TableMembers:
		d.refreshMembers(ctx)

	case event.Table == feed.TableScores:
		d.refreshScores(ctx)

	case event.Table == feed.TableMessages && event.Op == feed.OpInsert:
		var msg models.ChatMessage
		if err := json.Unmarshal(event.Payload, &msg); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("dropping malformed message event")
			return
		}
		d.state.AppendMessage(msg)
		d.broadcast.BroadcastToRoom(d.roomID, gateway.NewRoomEvent(d.roomID, gateway.EventTypeMessage, msg))

	case event.Table == feed.TableTimers && (event.Op == feed.OpInsert || event.Op == feed.OpUpdate):
		var row models.TimerState
		if err := json.Unmarshal(event.Payload, &row); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("dropping malformed timer event")
			return
		}
		d.timer.SetRow(&row)
		d.broadcastTimer()

	case event.Table == feed.TableTimers && event.Op == feed.OpDelete:
		d.timer.SetRow(nil)
		d.broadcastTimer()

	case event.Table == feed.TableRounds && event.Op == feed.OpInsert:
		var key roundKeyPayload
		if err := json.Unmarshal(event.Payload, &key); err != nil || key.ID == 0 {
			d.reloadRound(ctx, 0)
			return
		}
		d.reloadRound(ctx, key.ID)

	case event.Table == feed.TableRoles && event.Op == feed.OpInsert:
		var key roleKeyPayload
		if err := json.Unmarshal(event.Payload, &key); err != nil || key.RoundID == 0 {
			log.Warn().Str("event_id", event.ID.String()).Msg("dropping role event without round id")
			return
		}
		d.reloadRound(ctx, key.RoundID)

	default:
		log.Warn().
			Str("table", string(event.Table)).
			Str("op", string(event.Op)).
			Str("event_id", event.ID.String()).
			Msg("dropping feed event with unknown shape")
	}
}

func (d *Dispatcher) refreshMembers(ctx context.Context) {
	members, err := d.members.List(ctx, d.roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", d.roomID.String()).Msg("failed to refresh members")
		return
	}
	d.state.SetMembers(members)
	d.broadcast.BroadcastToRoom(d.roomID, gateway.NewRoomEvent(d.roomID, gateway.EventTypeMembers,
		gateway.MembersPayload{Members: members}))
}

func (d *Dispatcher) refreshScores(ctx context.Context) {
	entries, err := d.scores.FetchAll(ctx, d.roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", d.roomID.String()).Msg("failed to refresh scores")
		return
	}
	d.state.SetScores(entries)
	d.broadcast.BroadcastToRoom(d.roomID, gateway.NewRoomEvent(d.roomID, gateway.EventTypeScores,
		gateway.ScoresPayload{Scores: d.state.Scores()}))
}

func (d *Dispatcher) broadcastTimer() {
	d.broadcast.BroadcastToRoom(d.roomID, gateway.NewRoomEvent(d.roomID, gateway.EventTypeTimer, timerPayload(d.timer)))
}

// reloadRound loads the round by id (or the room's current round when the
// id is zero), announces it, and fans the role-gated view out per user. A
// round whose role rows have not landed yet resolves everyone to unresolved
// with no topic; the next role event re-runs this and fills them in.
func (d *Dispatcher) reloadRound(ctx context.Context, roundID int64) {
	var (
		round *models.Round
		err   error
	)
	if roundID != 0 {
		round, err = d.rounds.GetRound(ctx, roundID)
		if err == nil && round != nil && round.RoomID != d.roomID {
			// Event leaked from another room's feed; ignore it.
			return
		}
	}
	if round == nil && err == nil {
		round, err = d.rounds.CurrentRound(ctx, d.roomID)
	}
	if err != nil {
		log.Error().Err(err).Str("room_id", d.roomID.String()).Msg("failed to reload round")
		return
	}
	if round == nil {
		return
	}

	d.state.SetRound(round)
	d.broadcast.BroadcastToRoom(d.roomID, gateway.NewRoomEvent(d.roomID, gateway.EventTypeRound, gateway.RoundPayload{
		RoundID:   round.ID,
		CreatedBy: round.CreatedBy.String(),
		CreatedAt: round.CreatedAt,
	}))

	for _, userID := range d.broadcast.UsersInRoom(d.roomID) {
		payload, err := rolePayload(ctx, d.rounds, round, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to resolve role for user")
			continue
		}
		d.broadcast.BroadcastToUser(d.roomID, userID, gateway.NewRoomEvent(d.roomID, gateway.EventTypeRole, payload))
	}
}

func timerPayload(engine *timer.Engine) gateway.TimerPayload {
	payload := gateway.TimerPayload{
		RemainingMS: engine.Remaining().Milliseconds(),
		Phase:       engine.Phase(),
	}
	if row := engine.Row(); row != nil {
		payload.DeadlineAt = row.DeadlineAt
		payload.DurationSeconds = row.DurationSeconds
	}
	return payload
}

// rolePayload applies the visibility rule for one user: the topic rides
// along only for the presenter and the insider.
func rolePayload(ctx context.Context, rounds RoundLoader, round *models.Round, userID uuid.UUID) (gateway.RolePayload, error) {
	role, err := rounds.RoleOf(ctx, round.ID, userID)
	if err != nil {
		return gateway.RolePayload{}, err
	}
	topic, err := rounds.VisibleTopic(ctx, round, userID)
	if err != nil {
		return gateway.RolePayload{}, err
	}
	return gateway.RolePayload{RoundID: round.ID, Role: role, Topic: topic}, nil
}
