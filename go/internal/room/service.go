package room

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/rounds"
	"github.com/mcdev12/roomsync/go/internal/topics"
)

// RoomStore is the room registry surface the service needs.
type RoomStore interface {
	Create(ctx context.Context, name string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ProfileStore persists display names.
type ProfileStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, username string) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
}

// JoinStore is the membership surface the HTTP service needs.
type JoinStore interface {
	Join(ctx context.Context, roomID, userID uuid.UUID, username string) error
	List(ctx context.Context, roomID uuid.UUID) ([]models.Member, error)
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// ScoreSeeder writes absolute score values; satisfied by the scores
// repository.
type ScoreSeeder interface {
	Set(ctx context.Context, roomID, userID uuid.UUID, score int) error
}

// RoundIssuer starts rounds; satisfied by the rounds engine.
type RoundIssuer interface {
	IssueRound(ctx context.Context, roomID, requesterID uuid.UUID, memberIDs []uuid.UUID, topic string) (*rounds.Result, error)
}

// Service backs the HTTP API. Live push goes through sessions; this layer
// covers the request/response operations.
type Service struct {
	rooms    RoomStore
	members  JoinStore
	profiles ProfileStore
	scores   ScoreSeeder
	rounds   RoundIssuer
	topics   topics.Provider
}

func NewService(roomStore RoomStore, memberStore JoinStore, profileStore ProfileStore, scoreStore ScoreSeeder, issuer RoundIssuer, topicProvider topics.Provider) *Service {
	return &Service{
		rooms:    roomStore,
		members:  memberStore,
		profiles: profileStore,
		scores:   scoreStore,
		rounds:   issuer,
		topics:   topicProvider,
	}
}

// CreateRoom registers a new room.
func (s *Service) CreateRoom(ctx context.Context, name string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("room name is required")
	}
	return s.rooms.Create(ctx, name)
}

// ListRooms returns all rooms, newest first.
func (s *Service) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms.List(ctx)
}

// JoinRoom enrolls the user in the room under the given display name. An
// empty name falls back to the user's saved profile. Joining always resets
// the user's score to zero, rejoins included.
func (s *Service) JoinRoom(ctx context.Context, roomID, userID uuid.UUID, username string) error {
	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("room not found")
	}

	if strings.TrimSpace(username) == "" {
		saved, err := s.profiles.Get(ctx, userID)
		if err != nil {
			return err
		}
		username = saved
	}

	if err := s.members.Join(ctx, roomID, userID, username); err != nil {
		return err
	}
	// The reset applies on every join, rejoin included.
	return s.scores.Set(ctx, roomID, userID, 0)
}

// ListMembers returns the room's roster. Only members may read it.
func (s *Service) ListMembers(ctx context.Context, roomID, userID uuid.UUID) ([]models.Member, error) {
	isMember, err := s.members.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperror.Forbidden("requester is not a member of this room")
	}
	return s.members.List(ctx, roomID)
}

// IssueRound draws a topic and hidden roles for a new round. The requester
// learns only their own role, and the topic only if that role may see it;
// everyone else is told through their own websocket push.
func (s *Service) IssueRound(ctx context.Context, roomID, requesterID uuid.UUID, difficulty string) (*rounds.Result, error) {
	memberRows, err := s.members.List(ctx, roomID)
	if err != nil {
		return nil, err
	}
	memberIDs := make([]uuid.UUID, 0, len(memberRows))
	isMember := false
	for _, member := range memberRows {
		memberIDs = append(memberIDs, member.UserID)
		if member.UserID == requesterID {
			isMember = true
		}
	}
	// Validate before spending a topic generation call.
	if len(memberIDs) < 2 {
		return nil, apperror.Validation("at least two members are required")
	}
	if !isMember {
		return nil, apperror.Forbidden("requester is not a member of this room")
	}

	topic, err := s.topics.NextTopic(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	return s.rounds.IssueRound(ctx, roomID, requesterID, memberIDs, topic)
}

// SaveProfile stores the user's display name.
func (s *Service) SaveProfile(ctx context.Context, userID uuid.UUID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperror.Validation("username is required")
	}
	return s.profiles.Upsert(ctx, userID, username)
}
