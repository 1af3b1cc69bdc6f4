package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/medshare-backend/internal/app"
	"github.com/unclebandit/medshare-backend/internal/config"
	"github.com/unclebandit/medshare-backend/internal/queue"
	"github.com/unclebandit/medshare-backend/internal/service"
)

// openArchival wires the archival service over the configured stores. Sync
// reports go to AMQP when a broker is configured.
func openArchival(ctx context.Context, cfg config.Config) (*service.ArchivalService, *queue.AMQPQueue, func(), error) {
	repos, closeStores, err := app.OpenRepositories(ctx, cfg, false)
	if err != nil {
		return nil, nil, nil, err
	}
	amqpQ, err := app.OpenQueue(cfg)
	if err != nil {
		closeStores()
		return nil, nil, nil, err
	}

	opts := service.Options{SyncBatchSize: cfg.Sync.BatchSize, SyncEventTimeout: cfg.Sync.EventTimeout}
	if amqpQ != nil {
		opts.Queue = amqpQ
	}
	svc := service.New(repos, opts)

	cleanup := func() {
		if amqpQ != nil {
			amqpQ.Close()
		}
		closeStores()
	}
	return svc.Archival, amqpQ, cleanup, nil
}

func newSyncCmd(cfg config.Config) *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one archival pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			archival, _, cleanup, err := openArchival(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := archival.Sync(cmd.Context(), batchSize)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", cfg.Sync.BatchSize, "maximum events moved in this pass")
	return cmd
}

func newRunCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Archive periodically and serve sync requests until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			archival, amqpQ, cleanup, err := openArchival(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var q queue.Queue
			if amqpQ != nil {
				q = amqpQ
			} else {
				log.Warn().Msg("no AMQP broker configured; only scheduled passes will run")
			}
			return serve(cmd.Context(), archival.Sync, q, cfg.Sync.Interval, cfg.Sync.BatchSize)
		},
	}
}

// serve blocks until ctx is done. q may be nil. Scheduled and requested
// passes share one runner and take turns.
func serve(ctx context.Context, run queue.SyncRunner, q queue.Queue, interval time.Duration, batchSize int) error {
	run = queue.Serialize(run)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sched, err := app.StartSyncScheduler(ctx, interval, batchSize, run)
		if err != nil {
			return err
		}
		<-ctx.Done()
		return errors.Wrap(sched.Shutdown(), "stop scheduler")
	})

	if q != nil {
		g.Go(func() error {
			if err := queue.StartSyncRequestSubscriber(ctx, q, run); err != nil {
				return err
			}
			log.Info().Str("topic", queue.TopicSyncRequests).Msg("listening for sync requests")
			<-ctx.Done()
			return nil
		})
	}

	log.Info().Msg("worker running")
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("worker stopped")
	return nil
}

func newTriggerCmd(cfg config.Config) *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Ask running workers for an archival pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := app.OpenQueue(cfg)
			if err != nil {
				return err
			}
			if q == nil {
				return errors.New("queue.amqp_url is not set")
			}
			defer q.Close()
			return publishSyncRequest(q, batchSize, "cli", time.Now())
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", cfg.Sync.BatchSize, "maximum events moved by the requested pass")
	return cmd
}

func publishSyncRequest(q queue.Queue, batchSize int, by string, now time.Time) error {
	req := queue.SyncRequest{BatchSize: batchSize, RequestedBy: by, RequestedAt: now.UTC()}
	if err := q.Publish(queue.TopicSyncRequests, req); err != nil {
		return errors.Wrap(err, "publish sync request")
	}
	log.Info().Int("batch_size", batchSize).Msg("sync request published")
	return nil
}
