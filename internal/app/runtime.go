// Package app assembles the chat service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	cacheadapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/cache/adapter"
	cacheport "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/cache/port"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/logger"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/notify"
	qadapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/adapter"
	qport "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/port"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/task"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/presentation/controller"
	chathttp "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/presentation/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const notifyQueue = "chat"

// Runtime is the wired service: stores, realtime hub, queue and use cases.
type Runtime struct {
	Config    *config.Config
	Log       zerolog.Logger
	Stores    *Stores
	Validator *auth.Validator
	Hub       *realtime.Hub

	redis  *redis.Client
	cache  cacheport.Cache
	bridge *realtime.RedisBridge
	queue  qport.Client
	inline *qadapter.InlineQueue

	deps     chathttp.Dependencies
	notifyUC *usecase.NotifyUnreadUseCase
}

// New wires every component. Without REDIS_URL the cache, the queue and the
// fan-out all stay in process.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Runtime, error) {
	if cfg.NodeID == "" {
		host, _ := os.Hostname()
		cfg.NodeID = host
	}

	stores, err := OpenStores(ctx, cfg, logger.Component(log, "store"))
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		Config:    cfg,
		Log:       log,
		Stores:    stores,
		Validator: auth.NewValidator(cfg, logger.Component(log, "auth")),
	}

	if cfg.UsesRedis() {
		rt.redis, err = cacheadapter.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			stores.Close()
			return nil, err
		}
		rt.cache = cacheadapter.NewRedisCache(rt.redis, cfg.ServiceName)
		rt.bridge = realtime.NewRedisBridge(rt.redis, cfg.NodeID, "", logger.Component(log, "bridge"))
		rt.queue, err = qadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, err
		}
	} else {
		rt.cache, err = cacheadapter.NewMemoryCache(cfg.CacheSize)
		if err != nil {
			stores.Close()
			return nil, err
		}
		rt.inline = qadapter.NewInlineQueue(logger.Component(log, "queue"))
		rt.queue = rt.inline
	}

	rt.wire()
	return rt, nil
}

func (rt *Runtime) wire() {
	cfg := rt.Config
	repo, users := rt.Stores.Chat, rt.Stores.Users

	membership := usecase.NewCheckMembershipUseCase(repo, rt.cache, cfg.CacheTTL, logger.Component(rt.Log, "membership"))
	rt.Hub = realtime.NewHub(membership, logger.Component(rt.Log, "hub"))
	if rt.bridge != nil {
		rt.Hub.SetBridge(rt.bridge)
	}

	scheduler := task.NewUnreadScheduler(rt.queue, cfg.NotifyDelay, notifyQueue)
	send := usecase.NewSendMessageUseCase(repo, rt.Hub, realtime.NewSequencer(), scheduler, logger.Component(rt.Log, "send"))

	rt.notifyUC = usecase.NewNotifyUnreadUseCase(repo, users,
		notify.New(cfg.NotifyWebhookURL, cfg.ServiceName, logger.Component(rt.Log, "notify")),
		logger.Component(rt.Log, "notify"))
	if rt.inline != nil {
		task.RegisterNotifyUnreadTask(rt.inline, rt.notifyUC)
	}

	rt.deps = chathttp.Dependencies{
		FindOrCreate:    usecase.NewFindOrCreateConversationUseCase(repo, users),
		List:            usecase.NewListConversationsUseCase(repo, users),
		GetConversation: usecase.NewGetConversationUseCase(repo, users),
		GetParticipant:  usecase.NewGetParticipantUseCase(repo, users),
		GetMessages:     usecase.NewGetMessagesUseCase(repo),
		SendMessage:     send,
		MarkRead:        usecase.NewMarkReadUseCase(repo),
		UpdateProfile:   usecase.NewUpdateProfileUseCase(users),
		CheckMembership: membership,
		Hub:             rt.Hub,
		Socket: controller.SocketOptions{
			Channel: realtime.Options{
				WriteWait:  cfg.WSWriteWait,
				PingPeriod: cfg.WSPingPeriod,
				SendBuffer: cfg.WSSendBuffer,
			},
			PongWait:        cfg.WSPongWait,
			MaxMessageBytes: cfg.WSMaxMessageBytes,
			AllowedOrigins:  cfg.WSAllowedOrigins,
		},
		RequestTimeout: cfg.RequestTimeout,
		Log:            logger.Component(rt.Log, "socket"),
	}
}

// Dependencies returns what the HTTP layer mounts.
func (rt *Runtime) Dependencies() chathttp.Dependencies {
	return rt.deps
}

// NotifyUnreadUseCase is exposed for the standalone worker.
func (rt *Runtime) NotifyUnreadUseCase() *usecase.NotifyUnreadUseCase {
	return rt.notifyUC
}

// Ready checks the store and Redis.
func (rt *Runtime) Ready(ctx context.Context) error {
	if err := rt.Stores.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if rt.cache != nil {
		if err := rt.cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// RunBackground runs the fan-out bridge and the in-process queue until ctx is
// done. On return the hub has been closed.
func (rt *Runtime) RunBackground(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				rt.Log.Error().Err(err).Str("component", name).Msg("background component stopped")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	if rt.bridge != nil {
		run("bridge", func(ctx context.Context) error {
			return rt.bridge.Run(ctx, rt.Hub.Deliver)
		})
	}
	if rt.inline != nil {
		run("queue", rt.inline.Run)
	}

	<-ctx.Done()
	rt.Hub.Close()
	wg.Wait()
	return errors.Join(errs...)
}

// Close releases clients and stores.
func (rt *Runtime) Close() {
	if rt.queue != nil {
		_ = rt.queue.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	rt.Stores.Close()
}
