package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

// RecentEventsLimit caps the event list shown next to a campaign summary.
const RecentEventsLimit = 100

type ReportingService struct {
	Reporting repository.ReportingRepositoryInterface
}

// CampaignReport is what a brand manager sees for one campaign.
type CampaignReport struct {
	CampaignID uuid.UUID               `json:"campaign_id"`
	Summary    *model.ReportSummary    `json:"summary"`
	Events     []*model.ReportingEvent `json:"events"`
}

func intPtr(v int) *int { return &v }

// Summary runs every count concurrently; the first failure cancels the rest.
func (s *ReportingService) Summary(ctx context.Context, campaignID uuid.UUID) (*model.ReportSummary, error) {
	var sum model.ReportSummary
	g, ctx := errgroup.WithContext(ctx)

	distinct := func(dst *int64, f model.ReportFilter) {
		g.Go(func() error {
			n, err := s.Reporting.CountDistinctDoctors(ctx, campaignID, f)
			*dst = n
			return err
		})
	}
	distinct(&sum.UniqueDoctors, model.ReportFilter{})
	distinct(&sum.Clicked, model.ReportFilter{EventType: model.EventLinkClicked})
	distinct(&sum.Downloads, model.ReportFilter{EventType: model.EventPDFDownloaded})
	distinct(&sum.LastPage, model.ReportFilter{EventType: model.EventPDFLastPage})
	distinct(&sum.Video50, model.ReportFilter{EventType: model.EventVideoProgress, MinPercentage: intPtr(50)})
	distinct(&sum.Video100, model.ReportFilter{EventType: model.EventVideoProgress, Percentage: intPtr(100)})
	g.Go(func() error {
		n, err := s.Reporting.CountEvents(ctx, campaignID)
		sum.Total = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *ReportingService) Recent(ctx context.Context, campaignID uuid.UUID) ([]*model.ReportingEvent, error) {
	return s.Reporting.Recent(ctx, campaignID, RecentEventsLimit)
}

func (s *ReportingService) Report(ctx context.Context, campaignID uuid.UUID) (*CampaignReport, error) {
	g, gctx := errgroup.WithContext(ctx)
	report := &CampaignReport{CampaignID: campaignID}
	g.Go(func() error {
		sum, err := s.Summary(gctx, campaignID)
		report.Summary = sum
		return err
	})
	g.Go(func() error {
		events, err := s.Recent(gctx, campaignID)
		report.Events = events
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
