package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unclebandit/medshare-backend/internal/auth"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository/memstore"
	"github.com/unclebandit/medshare-backend/internal/service"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

type fixture struct {
	ctx       context.Context
	store     *memstore.Store
	reporting *memstore.ReportingStore
	clock     *testClock

	campaigns *service.CampaignService
	fieldReps *service.FieldRepService
	ledger    *service.LedgerService
	status    *service.StatusService
	archival  *service.ArchivalService
	reports   *service.ReportingService
	identity  *service.IdentityService

	publisher *auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	reporting := memstore.NewReporting()
	clock := newClock()

	svc := service.New(store.Set(reporting), service.Options{
		PublicBaseURL: "http://medshare.test/",
		Tokens:        auth.NewTokenManager("test-secret", time.Hour),
		Now:           clock.Now,
	})

	return &fixture{
		ctx:       context.Background(),
		store:     store,
		reporting: reporting,
		clock:     clock,
		campaigns: svc.Campaigns,
		fieldReps: svc.FieldReps,
		ledger:    svc.Ledger,
		status:    svc.Status,
		archival:  svc.Archival,
		reports:   svc.Reporting,
		identity:  svc.Identity,
		publisher: &auth.Principal{UserID: 1, Role: model.RolePublisher},
	}
}

func validCampaignInput() service.CampaignInput {
	return service.CampaignInput{
		CompanyName:     "Acme Pharma",
		BrandName:       "Cardiox",
		ExpectedDoctors: 50,
		ContactName:     "Priya",
		ContactPhone:    "+911234567890",
		ContactEmail:    "priya@acme.test",
	}
}

func (f *fixture) seedCampaign(t *testing.T, kinds ...model.SystemKind) *model.Campaign {
	t.Helper()
	if len(kinds) == 0 {
		kinds = []model.SystemKind{model.SystemInClinic}
	}
	res, err := f.campaigns.CreateCampaign(f.ctx, f.publisher, validCampaignInput(), kinds)
	require.NoError(t, err)
	return res.Campaign
}

const repCSV = "field-rep-name,email-id,phone-number,brand-supplied-field-rep-id\n" +
	"Ravi,ravi@acme.test,9000000001,BR-1\n"

func (f *fixture) seedRep(t *testing.T, c *model.Campaign) *model.FieldRep {
	t.Helper()
	_, err := f.fieldReps.ImportFieldReps(f.ctx, f.publisher, c.ID, strings.NewReader(repCSV))
	require.NoError(t, err)
	reps, err := f.store.FieldReps().Search(f.ctx, c.ID, "BR-1")
	require.NoError(t, err)
	require.Len(t, reps, 1)
	return reps[0]
}

func (f *fixture) seedCollateral(t *testing.T, c *model.Campaign) *model.Collateral {
	t.Helper()
	col, err := f.campaigns.AddCollateral(f.ctx, f.publisher, c.ID, service.CollateralInput{
		Classification: "doctor_short",
		ContentTitle:   "Hypertension basics",
		ItemType:       model.ItemBoth,
		VimeoURL:       "https://vimeo.com/123456",
	})
	require.NoError(t, err)
	return col
}

func (f *fixture) seedDoctor(t *testing.T, c *model.Campaign, rep *model.FieldRep) *model.Doctor {
	t.Helper()
	d, _, err := f.store.Doctors().GetOrCreate(f.ctx, &model.Doctor{
		CampaignID:     c.ID,
		FieldRepID:     rep.ID,
		Name:           "Dr. Mehta",
		WhatsAppNumber: "919800000001",
	})
	require.NoError(t, err)
	return d
}

// world is a campaign with one in-clinic system, rep, collateral and doctor.
type world struct {
	campaign   *model.Campaign
	rep        *model.FieldRep
	collateral *model.Collateral
	doctor     *model.Doctor
}

func (f *fixture) seedWorld(t *testing.T) world {
	t.Helper()
	c := f.seedCampaign(t)
	rep := f.seedRep(t, c)
	return world{campaign: c, rep: rep, collateral: f.seedCollateral(t, c), doctor: f.seedDoctor(t, c, rep)}
}

func (f *fixture) share(t *testing.T, w world) *model.ShareInstance {
	t.Helper()
	share, _, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, w.collateral)
	require.NoError(t, err)
	return share
}
