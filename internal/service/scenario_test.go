package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/medshare-backend/internal/model"
)

// Share, wait a week, click, archive, report.
func TestShareLifecycleEndToEnd(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)

	share, _, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, w.collateral)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.ShareCount())
	n, err := f.store.Ledger().CountEvents(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f.clock.Advance(7 * 24 * time.Hour)
	status, err := f.status.DoctorStatus(f.ctx, w.rep.ID, w.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSendReminder, status)

	_, err = f.ledger.EnsureLinkClicked(f.ctx, share)
	require.NoError(t, err)
	status, err = f.status.DoctorStatus(f.ctx, w.rep.ID, w.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRead, status)

	report, err := f.archival.Sync(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Transferred)

	n, err = f.store.Ledger().CountEvents(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, f.reporting.Len())

	sum, err := f.reports.Summary(f.ctx, w.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Clicked)
	assert.Equal(t, int64(1), sum.UniqueDoctors)
	assert.Equal(t, int64(2), sum.Total)
}
