package rounds

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/store"
)

// Repository owns round and role-assignment rows. Both are immutable once
// written. The round row and its role batch go in one transaction here, but
// readers elsewhere still tolerate a round observed before its roles: the
// feed delivers no cross-table ordering guarantee.
type Repository struct {
	client *store.Client
	events *feed.Repository
}

func NewRepository(client *store.Client, events *feed.Repository) *Repository {
	return &Repository{client: client, events: events}
}

type roundEventPayload struct {
	ID     int64     `json:"id"`
	RoomID uuid.UUID `json:"room_id"`
}

type roleEventPayload struct {
	RoundID int64     `json:"round_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// CreateRound inserts the round plus one role row per member as a batch.
// Feed payloads carry only row keys: which member holds which role is
// role-gated information and never rides the broadcast channel.
func (r *Repository) CreateRound(ctx context.Context, roomID, createdBy uuid.UUID, topic string, assignments []models.RoleAssignment) (*models.Round, error) {
	var round models.Round
	err := r.client.RunTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO rounds (room_id, topic, created_by)
			 VALUES ($1, $2, $3)
			 RETURNING id, room_id, topic, created_by, created_at`,
			roomID, topic, createdBy,
		).Scan(&round.ID, &round.RoomID, &round.Topic, &round.CreatedBy, &round.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert round: %w", err)
		}

		for _, a := range assignments {
			if _, err := tx.Exec(ctx,
				`INSERT INTO round_roles (round_id, user_id, role) VALUES ($1, $2, $3)`,
				round.ID, a.UserID, string(a.Role),
			); err != nil {
				return fmt.Errorf("failed to insert role assignment: %w", err)
			}
		}

		if err := r.events.Append(ctx, tx, roomID, feed.TableRounds, feed.OpInsert,
			roundEventPayload{ID: round.ID, RoomID: roomID}); err != nil {
			return err
		}
		for _, a := range assignments {
			if err := r.events.Append(ctx, tx, roomID, feed.TableRoles, feed.OpInsert,
				roleEventPayload{RoundID: round.ID, UserID: a.UserID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}
	return &round, nil
}

// GetRound loads a round by id, nil when absent.
func (r *Repository) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	var round models.Round
	err := r.client.Pool().QueryRow(ctx,
		`SELECT id, room_id, topic, created_by, created_at FROM rounds WHERE id = $1`,
		id,
	).Scan(&round.ID, &round.RoomID, &round.Topic, &round.CreatedBy, &round.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return &round, nil
}

// CurrentRound returns the room's round with the latest creation time, nil
// when the room has no rounds yet.
func (r *Repository) CurrentRound(ctx context.Context, roomID uuid.UUID) (*models.Round, error) {
	var round models.Round
	err := r.client.Pool().QueryRow(ctx,
		`SELECT id, room_id, topic, created_by, created_at
		 FROM rounds WHERE room_id = $1 ORDER BY created_at DESC LIMIT 1`,
		roomID,
	).Scan(&round.ID, &round.RoomID, &round.Topic, &round.CreatedBy, &round.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current round: %w", err)
	}
	return &round, nil
}

// RoleOf looks up the user's assignment for a round. An absent row yields
// RoleUnresolved, which readers treat as "no role yet".
func (r *Repository) RoleOf(ctx context.Context, roundID int64, userID uuid.UUID) (models.Role, error) {
	var role string
	err := r.client.Pool().QueryRow(ctx,
		`SELECT role FROM round_roles WHERE round_id = $1 AND user_id = $2`,
		roundID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoleUnresolved, nil
	}
	if err != nil {
		return models.RoleUnresolved, fmt.Errorf("failed to get role: %w", err)
	}
	return models.Role(role), nil
}
