package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository/memstore"
	"github.com/unclebandit/medshare-backend/internal/service"
)

func reportingRow(campaignID uuid.UUID, doctorID int64, kind model.EventType, pct *int, at time.Time) *model.ReportingEvent {
	return &model.ReportingEvent{
		ID:              uuid.New(),
		EventType:       kind,
		CampaignID:      campaignID,
		CollateralID:    1,
		FieldRepID:      1,
		DoctorID:        doctorID,
		ShareInstanceID: doctorID,
		VideoPercentage: pct,
		CreatedAt:       at,
	}
}

func TestReportingSummary(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewReporting()
	svc := &service.ReportingService{Reporting: store}
	campaignID := uuid.New()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pct := func(v int) *int { return &v }

	rows := []*model.ReportingEvent{
		reportingRow(campaignID, 1, model.EventShareInitiated, nil, at),
		reportingRow(campaignID, 1, model.EventLinkClicked, nil, at),
		reportingRow(campaignID, 1, model.EventVideoProgress, pct(50), at),
		reportingRow(campaignID, 1, model.EventVideoProgress, pct(100), at),
		reportingRow(campaignID, 2, model.EventShareInitiated, nil, at),
		reportingRow(campaignID, 2, model.EventLinkClicked, nil, at),
		reportingRow(campaignID, 2, model.EventPDFDownloaded, nil, at),
		reportingRow(campaignID, 2, model.EventPDFDownloaded, nil, at),
		reportingRow(campaignID, 2, model.EventPDFLastPage, nil, at),
		reportingRow(campaignID, 2, model.EventVideoProgress, pct(49), at),
		reportingRow(campaignID, 3, model.EventShareInitiated, nil, at),
		// another campaign never leaks in
		reportingRow(uuid.New(), 4, model.EventLinkClicked, nil, at),
	}
	for _, r := range rows {
		_, err := store.InsertIfAbsent(ctx, r)
		require.NoError(t, err)
	}

	sum, err := svc.Summary(ctx, campaignID)
	require.NoError(t, err)
	assert.Equal(t, &model.ReportSummary{
		UniqueDoctors: 3,
		Clicked:       2,
		Downloads:     1,
		LastPage:      1,
		Video50:       1,
		Video100:      1,
		Total:         11,
	}, sum)
}

func TestReportingRecentCapped(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewReporting()
	svc := &service.ReportingService{Reporting: store}
	campaignID := uuid.New()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < service.RecentEventsLimit+20; i++ {
		_, err := store.InsertIfAbsent(ctx, reportingRow(campaignID, int64(i), model.EventLandingAccess, nil, start.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	report, err := svc.Report(ctx, campaignID)
	require.NoError(t, err)
	require.Len(t, report.Events, service.RecentEventsLimit)
	assert.True(t, report.Events[0].CreatedAt.After(report.Events[1].CreatedAt))
	assert.Equal(t, int64(service.RecentEventsLimit+20), report.Summary.Total)
}

type failingReporting struct {
	*memstore.ReportingStore
}

func (failingReporting) CountEvents(context.Context, uuid.UUID) (int64, error) {
	return 0, errors.New("reporting store down")
}

func TestReportingSummaryFailsOnAnyCount(t *testing.T) {
	svc := &service.ReportingService{Reporting: failingReporting{ReportingStore: memstore.NewReporting()}}
	_, err := svc.Summary(context.Background(), uuid.New())
	assert.Error(t, err)
}
