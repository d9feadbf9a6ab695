package room

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/rounds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoomStore struct {
	rooms map[uuid.UUID]models.Room
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[uuid.UUID]models.Room)}
}

func (s *fakeRoomStore) Create(ctx context.Context, name string) (*models.Room, error) {
	room := models.Room{ID: uuid.New(), Name: name}
	s.rooms[room.ID] = room
	return &room, nil
}

func (s *fakeRoomStore) List(ctx context.Context) ([]models.Room, error) {
	out := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (s *fakeRoomStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := s.rooms[id]
	return ok, nil
}

type fakeJoinStore struct {
	members map[uuid.UUID][]models.Member
	joins   []string
}

func newFakeJoinStore() *fakeJoinStore {
	return &fakeJoinStore{members: make(map[uuid.UUID][]models.Member)}
}

func (s *fakeJoinStore) Join(ctx context.Context, roomID, userID uuid.UUID, username string) error {
	s.joins = append(s.joins, username)
	for i, m := range s.members[roomID] {
		if m.UserID == userID {
			s.members[roomID][i].Username = username
			return nil
		}
	}
	s.members[roomID] = append(s.members[roomID], models.Member{RoomID: roomID, UserID: userID, Username: username})
	return nil
}

func (s *fakeJoinStore) List(ctx context.Context, roomID uuid.UUID) ([]models.Member, error) {
	return s.members[roomID], nil
}

func (s *fakeJoinStore) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	for _, m := range s.members[roomID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeProfileStore struct {
	names map[uuid.UUID]string
}

func (s *fakeProfileStore) Upsert(ctx context.Context, userID uuid.UUID, username string) error {
	if s.names == nil {
		s.names = make(map[uuid.UUID]string)
	}
	s.names[userID] = username
	return nil
}

func (s *fakeProfileStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.names[userID], nil
}

type fakeScoreSeeder struct {
	sets []models.ScoreEntry
}

func (s *fakeScoreSeeder) Set(ctx context.Context, roomID, userID uuid.UUID, score int) error {
	s.sets = append(s.sets, models.ScoreEntry{RoomID: roomID, UserID: userID, Score: score})
	return nil
}

type fakeIssuer struct {
	lastTopic   string
	lastMembers []uuid.UUID
	result      *rounds.Result
}

func (i *fakeIssuer) IssueRound(ctx context.Context, roomID, requesterID uuid.UUID, memberIDs []uuid.UUID, topic string) (*rounds.Result, error) {
	i.lastTopic = topic
	i.lastMembers = memberIDs
	if i.result != nil {
		return i.result, nil
	}
	return &rounds.Result{RoundID: 1, Role: models.RoleCommon}, nil
}

type staticTopics struct {
	topic string
	calls int
	err   error
}

func (s *staticTopics) NextTopic(ctx context.Context, difficulty string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.topic, nil
}

type serviceFixture struct {
	rooms    *fakeRoomStore
	members  *fakeJoinStore
	profiles *fakeProfileStore
	seeder   *fakeScoreSeeder
	issuer   *fakeIssuer
	topics   *staticTopics
	service  *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		rooms:    newFakeRoomStore(),
		members:  newFakeJoinStore(),
		profiles: &fakeProfileStore{},
		seeder:   &fakeScoreSeeder{},
		issuer:   &fakeIssuer{},
		topics:   &staticTopics{topic: "coffee"},
	}
	f.service = NewService(f.rooms, f.members, f.profiles, f.seeder, f.issuer, f.topics)
	return f
}

func TestServiceCreateRoomRequiresName(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.CreateRoom(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestServiceJoinUnknownRoom(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.JoinRoom(context.Background(), uuid.New(), uuid.New(), "ada")
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestServiceJoinExistingRoom(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, userID, "ada"))
	assert.Equal(t, []string{"ada"}, f.members.joins)
	require.Len(t, f.seeder.sets, 1)
	assert.Equal(t, models.ScoreEntry{RoomID: created.ID, UserID: userID, Score: 0}, f.seeder.sets[0])
}

func TestServiceRejoinKeepsRosterAndResetsScore(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)
	userID := uuid.New()

	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, userID, "ada"))
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, userID, "ada"))

	// The upsert keeps the roster at one entry; the score reset fires on
	// both joins.
	listed, err := f.service.ListMembers(context.Background(), created.ID, userID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	require.Len(t, f.seeder.sets, 2)
	for _, set := range f.seeder.sets {
		assert.Equal(t, 0, set.Score)
		assert.Equal(t, userID, set.UserID)
	}
}

func TestServiceJoinFallsBackToProfileName(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, f.service.SaveProfile(context.Background(), userID, "grace"))

	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, userID, "  "))
	assert.Equal(t, []string{"grace"}, f.members.joins)
}

func TestServiceListMembersRequiresMembership(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)
	member := uuid.New()
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, member, "ada"))

	_, err = f.service.ListMembers(context.Background(), created.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	listed, err := f.service.ListMembers(context.Background(), created.ID, member)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestServiceIssueRoundPassesTopicAndMembers(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)
	requester, other := uuid.New(), uuid.New()
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, requester, "ada"))
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, other, "grace"))

	result, err := f.service.IssueRound(context.Background(), created.ID, requester, "easy")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "coffee", f.issuer.lastTopic)
	assert.ElementsMatch(t, []uuid.UUID{requester, other}, f.issuer.lastMembers)
}

func TestServiceIssueRoundValidatesBeforeTopicDraw(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)
	solo := uuid.New()
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, solo, "ada"))

	_, err = f.service.IssueRound(context.Background(), created.ID, solo, "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Zero(t, f.topics.calls, "topic draw should not run for an invalid request")
}

func TestServiceIssueRoundRejectsNonMember(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.service.CreateRoom(context.Background(), "friday night")
	require.NoError(t, err)
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, uuid.New(), "ada"))
	require.NoError(t, f.service.JoinRoom(context.Background(), created.ID, uuid.New(), "grace"))

	_, err = f.service.IssueRound(context.Background(), created.ID, uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Zero(t, f.topics.calls)
}

func TestServiceSaveProfileValidatesName(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.SaveProfile(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	require.NoError(t, f.service.SaveProfile(context.Background(), uuid.New(), "ada"))
}
