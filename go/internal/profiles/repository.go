package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/roomsync/go/internal/store"
)

// Repository owns display-name profiles, keyed by user id.
type Repository struct {
	client *store.Client
}

func NewRepository(client *store.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Upsert(ctx context.Context, userID uuid.UUID, username string) error {
	if _, err := r.client.Pool().Exec(ctx,
		`INSERT INTO profiles (id, username) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username`,
		userID, username,
	); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get returns the stored username, empty string when no profile exists.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := r.client.Pool().QueryRow(ctx,
		`SELECT username FROM profiles WHERE id = $1`, userID,
	).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	return username, nil
}
