package adapter

import (
	"context"
	"encoding/json"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/database"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"

	bolt "go.etcd.io/bbolt"
)

var bucketUsers = []byte("users")

type BoltUserRepository struct {
	db *bolt.DB
}

var _ repository.UserRepository = (*BoltUserRepository)(nil)

func NewBoltUserRepository(db *bolt.DB) (*BoltUserRepository, error) {
	if err := database.EnsureBuckets(db, bucketUsers); err != nil {
		return nil, err
	}
	return &BoltUserRepository{db: db}, nil
}

func (r *BoltUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	var u repository.User
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return repository.ErrUserNotFound
		}
		return json.Unmarshal(data, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *BoltUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	out := make(map[string]repository.User, len(ids))
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		for _, id := range ids {
			data := b.Get([]byte(id))
			if data == nil {
				continue
			}
			var u repository.User
			if err := json.Unmarshal(data, &u); err != nil {
				return err
			}
			out[id] = u
		}
		return nil
	})
	return out, err
}

func (r *BoltUserRepository) Upsert(ctx context.Context, user repository.User) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUsers).Put([]byte(user.ID), data)
	})
}
