package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/queue"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

const (
	DefaultSyncBatchSize    = 500
	DefaultSyncEventTimeout = 5 * time.Second
)

// ArchivalService moves events from the operational store to the reporting
// store. An event is deleted only after its reporting copy is written.
type ArchivalService struct {
	Ledger    repository.LedgerRepositoryInterface
	Reporting repository.ReportingRepositoryInterface
	// Queue receives every SyncReport; nil disables publishing.
	Queue queue.Queue

	BatchSize    int
	EventTimeout time.Duration
	Now          func() time.Time
}

func NewArchivalService(ledger repository.LedgerRepositoryInterface, reporting repository.ReportingRepositoryInterface, q queue.Queue) *ArchivalService {
	return &ArchivalService{
		Ledger:       ledger,
		Reporting:    reporting,
		Queue:        q,
		BatchSize:    DefaultSyncBatchSize,
		EventTimeout: DefaultSyncEventTimeout,
		Now:          time.Now,
	}
}

// Sync archives up to batchSize of the oldest events. batchSize <= 0 uses
// the configured default. Per-event failures are counted, never returned.
func (s *ArchivalService) Sync(ctx context.Context, batchSize int) (*model.SyncReport, error) {
	if batchSize <= 0 {
		batchSize = s.BatchSize
	}
	if batchSize <= 0 {
		batchSize = DefaultSyncBatchSize
	}

	report := &model.SyncReport{StartedAt: s.Now().UTC()}
	events, err := s.Ledger.OldestEvents(ctx, batchSize)
	if err != nil {
		return nil, err
	}
	report.Selected = len(events)

	for _, ev := range events {
		if err := s.archiveOne(ctx, ev); err != nil {
			log.Error().Err(err).Str("event_id", ev.ID.String()).Msg("archival failed")
			report.Failed++
			report.FailedIDs = append(report.FailedIDs, ev.ID.String())
			continue
		}
		report.Transferred++
	}
	report.FinishedAt = s.Now().UTC()

	log.Info().
		Int("selected", report.Selected).
		Int("transferred", report.Transferred).
		Int("failed", report.Failed).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("archival pass finished")

	if s.Queue != nil {
		if err := s.Queue.Publish(queue.TopicSyncResults, report); err != nil {
			log.Warn().Err(err).Msg("could not publish sync report")
		}
	}
	return report, nil
}

func (s *ArchivalService) archiveOne(ctx context.Context, ev *model.Event) error {
	timeout := s.EventTimeout
	if timeout <= 0 {
		timeout = DefaultSyncEventTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// An already archived copy counts as written.
	if _, err := s.Reporting.InsertIfAbsent(ctx, model.ReportingEventFrom(ev)); err != nil {
		return err
	}
	return s.Ledger.DeleteEvent(ctx, ev.ID)
}
