package repository

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when no profile is stored for the id.
var ErrUserNotFound = errors.New("user profile not found")

// User is the display profile of a marketplace user as the chat sees it.
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PhotoURL  string    `db:"photo_url" json:"photoUrl"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserRepository stores user profiles used to denormalise participants.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	// FindByIDs returns the profiles that exist; missing ids are absent from the map.
	FindByIDs(ctx context.Context, ids []string) (map[string]User, error)
	Upsert(ctx context.Context, user User) error
}
