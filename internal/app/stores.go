// Package app opens the infrastructure the binaries share.
package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/cache"
	"github.com/unclebandit/medshare-backend/internal/config"
	"github.com/unclebandit/medshare-backend/internal/db"
	"github.com/unclebandit/medshare-backend/internal/queue"
	"github.com/unclebandit/medshare-backend/internal/repository"
	"github.com/unclebandit/medshare-backend/internal/repository/memstore"
)

// CloseFunc releases whatever an Open* call acquired.
type CloseFunc func() error

func noop() error { return nil }

// OpenRepositories connects the stores named by cfg.StoreDriver. With
// migrate set, both schemas are created first.
func OpenRepositories(ctx context.Context, cfg config.Config, migrate bool) (repository.Set, CloseFunc, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn().Msg("using in-memory stores; data is lost on exit")
		return memstore.New().Set(memstore.NewReporting()), noop, nil
	case config.StoreDriverPostgres, "":
	default:
		return repository.Set{}, nil, errors.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	router, err := db.OpenStores(cfg.DB)
	if err != nil {
		return repository.Set{}, nil, err
	}
	if migrate {
		if err := repository.Migrate(ctx, router); err != nil {
			router.Close()
			return repository.Set{}, nil, err
		}
	}
	set, err := repository.NewPostgresSet(router)
	if err != nil {
		router.Close()
		return repository.Set{}, nil, err
	}
	return set, router.Close, nil
}

// OpenClaims uses Redis when cache.redis_url is set.
func OpenClaims(ctx context.Context, cfg config.Config) (cache.ClaimStore, CloseFunc, error) {
	if cfg.Redis.URL == "" {
		return cache.NewMemoryClaimStore(cfg.Verify.TTL), noop, nil
	}
	store, err := cache.NewRedisClaimStore(cfg.Redis.URL, cfg.Verify.TTL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	log.Info().Msg("verification claims stored in redis")
	return store, store.Close, nil
}

// OpenQueue dials AMQP when queue.amqp_url is set. Without it there is no
// broker to reach other processes, so it returns nil.
func OpenQueue(cfg config.Config) (*queue.AMQPQueue, error) {
	if cfg.Queue.AMQPURL == "" {
		return nil, nil
	}
	return queue.DialAMQP(cfg.Queue.AMQPURL)
}
