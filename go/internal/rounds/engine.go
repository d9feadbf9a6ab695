package rounds

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/mcdev12/roomsync/go/internal/models"
)

// Store defines what the engine needs from the rounds persistence layer.
type Store interface {
	CreateRound(ctx context.Context, roomID, createdBy uuid.UUID, topic string, assignments []models.RoleAssignment) (*models.Round, error)
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	CurrentRound(ctx context.Context, roomID uuid.UUID) (*models.Round, error)
	RoleOf(ctx context.Context, roundID int64, userID uuid.UUID) (models.Role, error)
}

// PermFunc draws a random permutation of [0, n). Injected so tests can pin
// the draw; production uses math/rand.
type PermFunc func(n int) []int

// Result is what the requester learns from issuing a round: their own role,
// and the topic only if that role may see it.
type Result struct {
	RoundID int64       `json:"round_id"`
	Role    models.Role `json:"role"`
	Topic   *string     `json:"topic"`
}

// Engine assigns hidden roles and gates topic visibility. Role draw: a
// uniform permutation of the member list; first is presenter, second is
// insider, the rest are common.
type Engine struct {
	store Store
	perm  PermFunc
}

func NewEngine(store Store, perm PermFunc) *Engine {
	if perm == nil {
		perm = rand.Perm
	}
	return &Engine{store: store, perm: perm}
}

// IssueRound creates a round for the given members. Requires at least two
// members (so presenter and insider are distinct) and that the requester is
// one of them.
func (e *Engine) IssueRound(ctx context.Context, roomID, requesterID uuid.UUID, memberIDs []uuid.UUID, topic string) (*Result, error) {
	if len(memberIDs) < 2 {
		return nil, apperror.Validation("at least two members are required")
	}
	requesterIncluded := false
	for _, id := range memberIDs {
		if id == requesterID {
			requesterIncluded = true
			break
		}
	}
	if !requesterIncluded {
		return nil, apperror.Forbidden("requester is not a member of this room")
	}

	perm := e.perm(len(memberIDs))
	presenter := memberIDs[perm[0]]
	insider := memberIDs[perm[1]]

	assignments := make([]models.RoleAssignment, 0, len(memberIDs))
	for _, id := range memberIDs {
		role := models.RoleCommon
		switch id {
		case presenter:
			role = models.RolePresenter
		case insider:
			role = models.RoleInsider
		}
		assignments = append(assignments, models.RoleAssignment{UserID: id, Role: role})
	}

	round, err := e.store.CreateRound(ctx, roomID, requesterID, topic, assignments)
	if err != nil {
		return nil, err
	}

	myRole := models.RoleCommon
	switch requesterID {
	case presenter:
		myRole = models.RolePresenter
	case insider:
		myRole = models.RoleInsider
	}

	result := &Result{RoundID: round.ID, Role: myRole}
	if myRole.CanSeeTopic() {
		result.Topic = &round.Topic
	}
	return result, nil
}

// GetRound returns a round by id, nil when it does not exist.
func (e *Engine) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	return e.store.GetRound(ctx, id)
}

// CurrentRound returns the room's latest round, nil when none exists.
func (e *Engine) CurrentRound(ctx context.Context, roomID uuid.UUID) (*models.Round, error) {
	return e.store.CurrentRound(ctx, roomID)
}

// RoleOf resolves a user's role for a round; absent rows are unresolved.
func (e *Engine) RoleOf(ctx context.Context, roundID int64, userID uuid.UUID) (models.Role, error) {
	return e.store.RoleOf(ctx, roundID, userID)
}

// VisibleTopic applies the visibility rule on every read: the topic is
// revealed to the presenter and the insider, hidden from everyone else,
// non-members and unresolved roles included. It is never cached in a form an
// ineligible caller could read.
func (e *Engine) VisibleTopic(ctx context.Context, round *models.Round, userID uuid.UUID) (*string, error) {
	if round == nil {
		return nil, nil
	}
	role, err := e.store.RoleOf(ctx, round.ID, userID)
	if err != nil {
		return nil, err
	}
	if !role.CanSeeTopic() {
		return nil, nil
	}
	topic := round.Topic
	return &topic, nil
}
