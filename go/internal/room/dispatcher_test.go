package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	userID uuid.UUID // uuid.Nil for room-wide broadcasts
	event  *gateway.RoomEvent
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
	users  []uuid.UUID
}

func (b *recordingBroadcaster) BroadcastToRoom(roomID uuid.UUID, event *gateway.RoomEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{event: event})
}

func (b *recordingBroadcaster) BroadcastToUser(roomID, userID uuid.UUID, event *gateway.RoomEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{userID: userID, event: event})
}

func (b *recordingBroadcaster) UsersInRoom(roomID uuid.UUID) []uuid.UUID {
	return b.users
}

func (b *recordingBroadcaster) byType(eventType gateway.EventType) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, rec := range b.events {
		if rec.event.Type == eventType {
			out = append(out, rec)
		}
	}
	return out
}

type fakeMemberStore struct {
	members []models.Member
	listErr error
	left    []uuid.UUID
}

func (s *fakeMemberStore) List(ctx context.Context, roomID uuid.UUID) ([]models.Member, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.members, nil
}

func (s *fakeMemberStore) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	s.left = append(s.left, userID)
	return nil
}

type fakeScoreStore struct {
	entries   []models.ScoreEntry
	fetchErr  error
	adjustErr error
	current   map[uuid.UUID]int
	writes    []models.ScoreEntry
}

func (s *fakeScoreStore) FetchAll(ctx context.Context, roomID uuid.UUID) ([]models.ScoreEntry, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.entries, nil
}

func (s *fakeScoreStore) Adjust(ctx context.Context, roomID, userID uuid.UUID, delta int) (int, error) {
	if s.adjustErr != nil {
		return 0, s.adjustErr
	}
	if s.current == nil {
		s.current = make(map[uuid.UUID]int)
		for _, e := range s.entries {
			s.current[e.UserID] = e.Score
		}
	}
	s.current[userID] += delta
	written := s.current[userID]
	s.writes = append(s.writes, models.ScoreEntry{RoomID: roomID, UserID: userID, Score: written})
	return written, nil
}

type fakeRoundLoader struct {
	rounds map[int64]*models.Round
	roles  map[int64]map[uuid.UUID]models.Role
}

func newFakeRoundLoader() *fakeRoundLoader {
	return &fakeRoundLoader{
		rounds: make(map[int64]*models.Round),
		roles:  make(map[int64]map[uuid.UUID]models.Role),
	}
}

func (l *fakeRoundLoader) addRound(round *models.Round, roles map[uuid.UUID]models.Role) {
	l.rounds[round.ID] = round
	l.roles[round.ID] = roles
}

func (l *fakeRoundLoader) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	return l.rounds[id], nil
}

func (l *fakeRoundLoader) CurrentRound(ctx context.Context, roomID uuid.UUID) (*models.Round, error) {
	var latest *models.Round
	for _, round := range l.rounds {
		if round.RoomID == roomID && (latest == nil || round.ID > latest.ID) {
			latest = round
		}
	}
	return latest, nil
}

func (l *fakeRoundLoader) RoleOf(ctx context.Context, roundID int64, userID uuid.UUID) (models.Role, error) {
	return l.roles[roundID][userID], nil
}

func (l *fakeRoundLoader) VisibleTopic(ctx context.Context, round *models.Round, userID uuid.UUID) (*string, error) {
	if round == nil {
		return nil, nil
	}
	if !l.roles[round.ID][userID].CanSeeTopic() {
		return nil, nil
	}
	topic := round.Topic
	return &topic, nil
}

type dispatcherFixture struct {
	roomID    uuid.UUID
	state     *State
	timer     *timer.Engine
	members   *fakeMemberStore
	scores    *fakeScoreStore
	rounds    *fakeRoundLoader
	broadcast *recordingBroadcaster
	d         *Dispatcher
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	f := &dispatcherFixture{
		roomID:    uuid.New(),
		state:     NewState(),
		members:   &fakeMemberStore{},
		scores:    &fakeScoreStore{},
		rounds:    newFakeRoundLoader(),
		broadcast: &recordingBroadcaster{},
	}
	f.timer = timer.NewEngine(f.roomID, &nopTimerStore{}, clockwork.NewFakeClock())
	f.d = NewDispatcher(f.roomID, f.state, f.timer, f.members, f.scores, f.rounds, f.broadcast)
	return f
}

type nopTimerStore struct{}

func (nopTimerStore) Put(ctx context.Context, state models.TimerState) error { return nil }
func (nopTimerStore) Get(ctx context.Context, roomID uuid.UUID) (*models.TimerState, error) {
	return nil, nil
}

func feedEvent(roomID uuid.UUID, table feed.Table, op feed.Op, payload any) feed.Event {
	raw, _ := json.Marshal(payload)
	return feed.Event{ID: uuid.New(), RoomID: roomID, Table: table, Op: op, Payload: raw}
}

func TestDispatcherMemberEventRefreshesRoster(t *testing.T) {
	f := newDispatcherFixture(t)
	f.members.members = []models.Member{
		{RoomID: f.roomID, UserID: uuid.New(), Username: "ada"},
		{RoomID: f.roomID, UserID: uuid.New(), Username: "grace"},
	}

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableMembers, feed.OpInsert, map[string]string{"user_id": "x"}))

	assert.Len(t, f.state.Members(), 2)
	events := f.broadcast.byType(gateway.EventTypeMembers)
	require.Len(t, events, 1)

	var payload gateway.MembersPayload
	require.NoError(t, json.Unmarshal(events[0].event.Data, &payload))
	assert.Len(t, payload.Members, 2)
}

func TestDispatcherRefetchFailureKeepsPreviousView(t *testing.T) {
	f := newDispatcherFixture(t)
	existing := []models.Member{{RoomID: f.roomID, UserID: uuid.New(), Username: "ada"}}
	f.state.SetMembers(existing)
	f.members.listErr = errors.New("connection refused")

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableMembers, feed.OpDelete, nil))

	assert.Equal(t, existing, f.state.Members())
	assert.Empty(t, f.broadcast.byType(gateway.EventTypeMembers))
}

func TestDispatcherScoreEventRefreshesBoard(t *testing.T) {
	f := newDispatcherFixture(t)
	userID := uuid.New()
	f.scores.entries = []models.ScoreEntry{{RoomID: f.roomID, UserID: userID, Score: 7}}

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableScores, feed.OpUpdate, nil))

	assert.Equal(t, 7, f.state.Score(userID))
	require.Len(t, f.broadcast.byType(gateway.EventTypeScores), 1)
}

func TestDispatcherMessageInsertAppends(t *testing.T) {
	f := newDispatcherFixture(t)
	msg := models.ChatMessage{ID: 3, RoomID: f.roomID, UserID: uuid.New(), Body: "hello", CreatedAt: time.Now().UTC()}

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableMessages, feed.OpInsert, msg))

	require.Len(t, f.state.Messages(), 1)
	assert.Equal(t, "hello", f.state.Messages()[0].Body)
	require.Len(t, f.broadcast.byType(gateway.EventTypeMessage), 1)
}

func TestDispatcherMalformedMessageDropped(t *testing.T) {
	f := newDispatcherFixture(t)

	f.d.HandleEvent(context.Background(), feed.Event{
		ID: uuid.New(), RoomID: f.roomID, Table: feed.TableMessages, Op: feed.OpInsert,
		Payload: json.RawMessage(`{"id":"not a number"}`),
	})

	assert.Empty(t, f.state.Messages())
	assert.Empty(t, f.broadcast.events)
}

func TestDispatcherTimerUpdateReplacesRow(t *testing.T) {
	f := newDispatcherFixture(t)
	seconds := 30
	row := models.TimerState{RoomID: f.roomID, DurationSeconds: &seconds}

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableTimers, feed.OpUpdate, row))

	require.NotNil(t, f.timer.Row())
	assert.Equal(t, models.TimerPhasePaused, f.timer.Phase())
	require.Len(t, f.broadcast.byType(gateway.EventTypeTimer), 1)
}

func TestDispatcherTimerDeleteClearsRow(t *testing.T) {
	f := newDispatcherFixture(t)
	seconds := 30
	f.timer.SetRow(&models.TimerState{RoomID: f.roomID, DurationSeconds: &seconds})

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableTimers, feed.OpDelete, nil))

	assert.Nil(t, f.timer.Row())
	assert.Equal(t, models.TimerPhaseIdle, f.timer.Phase())
}

func TestDispatcherRoundInsertFansOutRoles(t *testing.T) {
	f := newDispatcherFixture(t)
	presenter, insider, common := uuid.New(), uuid.New(), uuid.New()
	round := &models.Round{ID: 11, RoomID: f.roomID, Topic: "bridge", CreatedBy: presenter, CreatedAt: time.Now().UTC()}
	f.rounds.addRound(round, map[uuid.UUID]models.Role{
		presenter: models.RolePresenter,
		insider:   models.RoleInsider,
		common:    models.RoleCommon,
	})
	f.broadcast.users = []uuid.UUID{presenter, insider, common}

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableRounds, feed.OpInsert, map[string]int64{"id": 11}))

	require.NotNil(t, f.state.Round())
	assert.Equal(t, int64(11), f.state.Round().ID)
	require.Len(t, f.broadcast.byType(gateway.EventTypeRound), 1)

	roleEvents := f.broadcast.byType(gateway.EventTypeRole)
	require.Len(t, roleEvents, 3)

	topics := map[uuid.UUID]*string{}
	for _, rec := range roleEvents {
		var payload gateway.RolePayload
		require.NoError(t, json.Unmarshal(rec.event.Data, &payload))
		topics[rec.userID] = payload.Topic
	}
	require.NotNil(t, topics[presenter])
	assert.Equal(t, "bridge", *topics[presenter])
	require.NotNil(t, topics[insider])
	assert.Nil(t, topics[common])
}

func TestDispatcherRoleInsertReloadsRound(t *testing.T) {
	f := newDispatcherFixture(t)
	userID := uuid.New()
	round := &models.Round{ID: 5, RoomID: f.roomID, Topic: "chair", CreatedBy: userID}
	f.rounds.addRound(round, map[uuid.UUID]models.Role{userID: models.RolePresenter})
	f.broadcast.users = []uuid.UUID{userID}

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableRoles, feed.OpInsert, map[string]int64{"round_id": 5}))

	require.NotNil(t, f.state.Round())
	assert.Equal(t, int64(5), f.state.Round().ID)
	require.Len(t, f.broadcast.byType(gateway.EventTypeRole), 1)
}

func TestDispatcherIgnoresOtherRoomsRound(t *testing.T) {
	f := newDispatcherFixture(t)
	round := &models.Round{ID: 9, RoomID: uuid.New(), Topic: "ocean"}
	f.rounds.addRound(round, nil)

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.TableRounds, feed.OpInsert, map[string]int64{"id": 9}))

	assert.Nil(t, f.state.Round())
	assert.Empty(t, f.broadcast.events)
}

func TestDispatcherUnknownShapeDropped(t *testing.T) {
	f := newDispatcherFixture(t)

	f.d.HandleEvent(context.Background(), feedEvent(f.roomID, feed.Table("profiles"), feed.OpInsert, nil))

	assert.Empty(t, f.broadcast.events)
}

func TestDispatcherRunStopsOnChannelClose(t *testing.T) {
	f := newDispatcherFixture(t)
	events := make(chan feed.Event)

	done := make(chan struct{})
	go func() {
		f.d.Run(context.Background(), events)
		close(done)
	}()

	events <- feedEvent(f.roomID, feed.TableScores, feed.OpUpdate, nil)
	close(events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop on channel close")
	}
	require.Len(t, f.broadcast.byType(gateway.EventTypeScores), 1)
}
