package app

import (
	"context"
	"fmt"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/database"
	chatadapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/adapter"
	chatrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
	useradapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/adapter"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// Stores holds the repositories selected by STORE_DRIVER.
type Stores struct {
	Chat  chatrepo.ChatRepository
	Users userrepo.UserRepository

	pool *pgxpool.Pool
	db   *bolt.DB
}

// OpenStores connects the configured backend, migrating Postgres when enabled.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if cfg.DBAutoMigrate {
			version, err := database.Migrate(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info().Uint("version", version).Msg("database migrated")
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL, database.WithMaxConns(cfg.DBMaxConns))
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Stores{
			Chat:  chatadapter.NewPgChatRepository(pool),
			Users: useradapter.NewPgUserRepository(pool),
			pool:  pool,
		}, nil

	case config.StoreBolt:
		db, err := database.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		chatRepo, err := chatadapter.NewBoltChatRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		users, err := useradapter.NewBoltUserRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("path", cfg.BoltPath).Msg("bolt store opened")
		return &Stores{Chat: chatRepo, Users: users, db: db}, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &Stores{
			Chat:  chatadapter.NewMemoryChatRepository(),
			Users: useradapter.NewMemoryUserRepository(),
		}, nil
	}
}

// Ping checks the backing database.
func (s *Stores) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return nil
}

func (s *Stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
