package rooms

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/mcdev12/roomsync/go/internal/store"
)

// Repository owns the room registry. Rooms are created here and read by the
// sync engine, never mutated by it.
type Repository struct {
	client *store.Client
}

func NewRepository(client *store.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Create(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	err := r.client.Pool().QueryRow(ctx,
		`INSERT INTO rooms (id, name) VALUES ($1, $2) RETURNING id, name, created_at`,
		uuid.New(), name,
	).Scan(&room.ID, &room.Name, &room.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &room, nil
}

// List returns all rooms, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Room, error) {
	rows, err := r.client.Pool().Query(ctx,
		`SELECT id, name, created_at FROM rooms ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var list []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		list = append(list, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return list, nil
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.client.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	return exists, nil
}
