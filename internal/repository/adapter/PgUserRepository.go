package adapter

import (
	"context"
	"errors"

	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	var u repository.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, photo_url, updated_at
		FROM chat.user_profile
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.PhotoURL, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	out := make(map[string]repository.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, photo_url, updated_at
		FROM chat.user_profile
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u repository.User
		if err := rows.Scan(&u.ID, &u.Name, &u.PhotoURL, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *PgUserRepository) Upsert(ctx context.Context, user repository.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.user_profile (id, name, photo_url, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url, updated_at = EXCLUDED.updated_at
	`, user.ID, user.Name, user.PhotoURL, user.UpdatedAt)
	return err
}
