package app

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/queue"
)

// StartSyncScheduler runs one archival pass every interval. A pass still
// running when the next is due makes the scheduler skip that tick.
func StartSyncScheduler(ctx context.Context, interval time.Duration, batchSize int, run queue.SyncRunner) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("sync interval must be positive")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "create scheduler")
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := run(ctx, batchSize); err != nil {
				log.Error().Err(err).Msg("scheduled archival pass failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		s.Shutdown()
		return nil, errors.Wrap(err, "schedule archival")
	}
	s.Start()
	log.Info().Dur("interval", interval).Int("batch_size", batchSize).Msg("archival scheduled")
	return s, nil
}
