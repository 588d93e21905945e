package adapter

import (
	"context"
	"sync"

	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]repository.User
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]repository.User)}
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]repository.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) Upsert(ctx context.Context, user repository.User) error {
	r.mu.Lock()
	r.users[user.ID] = user
	r.mu.Unlock()
	return nil
}
