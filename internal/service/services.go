package service

import (
	"time"

	"github.com/unclebandit/medshare-backend/internal/auth"
	"github.com/unclebandit/medshare-backend/internal/queue"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

type Options struct {
	PublicBaseURL string
	Tokens        *auth.TokenManager
	// Queue receives sync reports; nil disables publishing.
	Queue            queue.Queue
	SyncBatchSize    int
	SyncEventTimeout time.Duration
	Now              func() time.Time
}

// Services is the application layer wired over one repository set.
type Services struct {
	Identity  *IdentityService
	Campaigns *CampaignService
	FieldReps *FieldRepService
	Ledger    *LedgerService
	Status    *StatusService
	Archival  *ArchivalService
	Reporting *ReportingService
}

func New(repos repository.Set, opts Options) *Services {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ledger := NewLedgerService(repos.Ledger, opts.PublicBaseURL)
	ledger.Now = now
	status := NewStatusService(repos.Ledger)
	status.Now = now

	archival := NewArchivalService(repos.Ledger, repos.Reporting, opts.Queue)
	archival.Now = now
	if opts.SyncBatchSize > 0 {
		archival.BatchSize = opts.SyncBatchSize
	}
	if opts.SyncEventTimeout > 0 {
		archival.EventTimeout = opts.SyncEventTimeout
	}

	campaigns := &CampaignService{CampaignRepo: repos.Campaigns, CollateralRepo: repos.Collaterals}
	return &Services{
		Identity:  &IdentityService{Users: repos.Users, FieldReps: repos.FieldReps, Tokens: opts.Tokens},
		Campaigns: campaigns,
		FieldReps: &FieldRepService{
			Campaigns:   campaigns,
			FieldReps:   repos.FieldReps,
			Doctors:     repos.Doctors,
			Collaterals: repos.Collaterals,
			Ledger:      ledger,
			Status:      status,
		},
		Ledger:    ledger,
		Status:    status,
		Archival:  archival,
		Reporting: &ReportingService{Reporting: repos.Reporting},
	}
}
