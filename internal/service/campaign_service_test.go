package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/medshare-backend/internal/auth"
	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/service"
)

func TestCreateCampaign(t *testing.T) {
	f := newFixture(t)

	res, err := f.campaigns.CreateCampaign(f.ctx, f.publisher, validCampaignInput(),
		[]model.SystemKind{model.SystemInClinic, model.SystemRedFlag})
	require.NoError(t, err)

	assert.Equal(t, f.publisher.UserID, res.Campaign.CreatedBy)
	assert.NotEqual(t, uuid.Nil, res.RecruitmentToken)
	require.Len(t, res.Systems, 2)
	for _, s := range res.Systems {
		assert.Equal(t, model.SystemDraft, s.Status)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("missing company", func(t *testing.T) {
		in := validCampaignInput()
		in.CompanyName = ""
		_, err := f.campaigns.CreateCampaign(f.ctx, f.publisher, in, nil)
		var ve *appErrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "company_name", ve.Field)
	})

	t.Run("bad email", func(t *testing.T) {
		in := validCampaignInput()
		in.ContactEmail = "nope"
		_, err := f.campaigns.CreateCampaign(f.ctx, f.publisher, in, nil)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	})

	t.Run("duplicate kinds", func(t *testing.T) {
		_, err := f.campaigns.CreateCampaign(f.ctx, f.publisher, validCampaignInput(),
			[]model.SystemKind{model.SystemPatient, model.SystemPatient})
		assert.ErrorIs(t, err, appErrors.ErrDuplicateSystem)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := f.campaigns.CreateCampaign(f.ctx, f.publisher, validCampaignInput(), []model.SystemKind{"billboard"})
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	})

	t.Run("brand manager cannot create", func(t *testing.T) {
		bm := &auth.Principal{UserID: 2, Role: model.RoleBrandManager}
		_, err := f.campaigns.CreateCampaign(f.ctx, bm, validCampaignInput(), nil)
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	})
}

func TestAddSystemRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t)

	sys, err := f.campaigns.AddSystem(f.ctx, f.publisher, c.ID, model.SystemPatient)
	require.NoError(t, err)
	assert.Equal(t, model.SystemDraft, sys.Status)

	_, err = f.campaigns.AddSystem(f.ctx, f.publisher, c.ID, model.SystemPatient)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateSystem)

	_, err = f.campaigns.AddSystem(f.ctx, f.publisher, c.ID, model.SystemInClinic)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateSystem)
}

func TestOnlyOwnerMayEdit(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t)
	intruder := &auth.Principal{UserID: 77, Role: model.RolePublisher}

	_, err := f.campaigns.UpdateContact(f.ctx, intruder, c.ID, validCampaignInput())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.campaigns.AddSystem(f.ctx, intruder, c.ID, model.SystemPatient)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.campaigns.ListCollaterals(f.ctx, intruder, c.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.campaigns.UpdateContact(f.ctx, f.publisher, uuid.New(), validCampaignInput())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateContactKeepsOwner(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t)

	in := validCampaignInput()
	in.ContactName = "Anil"
	updated, err := f.campaigns.UpdateContact(f.ctx, f.publisher, c.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Anil", updated.ContactName)

	stored, err := f.store.Campaigns().GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anil", stored.ContactName)
	assert.Equal(t, f.publisher.UserID, stored.CreatedBy)
}

func TestConfigureAndActivateSystem(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t)
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)

	sys, err := f.campaigns.ConfigureSystem(f.ctx, f.publisher, c.ID, model.SystemInClinic, service.SystemConfig{
		InChargeName:          "Sunita",
		ItemsPerClinicPerYear: 12,
		StartDate:             &start,
		EndDate:               &end,
		PrintingRequired:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunita", sys.InChargeName)
	assert.Equal(t, model.SystemDraft, sys.Status)

	_, err = f.campaigns.ConfigureSystem(f.ctx, f.publisher, c.ID, model.SystemInClinic, service.SystemConfig{StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.campaigns.ConfigureSystem(f.ctx, f.publisher, c.ID, model.SystemPatient, service.SystemConfig{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	sys, err = f.campaigns.Activate(f.ctx, f.publisher, c.ID, model.SystemInClinic)
	require.NoError(t, err)
	assert.Equal(t, model.SystemActive, sys.Status)

	stored, err := f.store.Campaigns().GetSystem(f.ctx, c.ID, model.SystemInClinic)
	require.NoError(t, err)
	assert.Equal(t, model.SystemActive, stored.Status)
	assert.Equal(t, 12, stored.ItemsPerClinicPerYear)
}

func TestDashboardByRole(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t)
	other := &auth.Principal{UserID: 5, Role: model.RolePublisher}
	_, err := f.campaigns.CreateCampaign(f.ctx, other, validCampaignInput(), nil)
	require.NoError(t, err)

	own, err := f.campaigns.Dashboard(f.ctx, f.publisher)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := f.campaigns.Dashboard(f.ctx, &auth.Principal{UserID: 9, Role: model.RoleBrandManager})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.campaigns.Dashboard(f.ctx, &auth.Principal{FieldRepID: 1, Role: model.RoleFieldRep})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAddCollateral(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t)

	col := f.seedCollateral(t, c)
	assert.True(t, col.IsActive)
	assert.Equal(t, model.DefaultMessageTemplate, col.WhatsAppTemplate)
	assert.Equal(t, "default", col.Cycle)

	sys, err := f.store.Campaigns().GetSystem(f.ctx, c.ID, model.SystemInClinic)
	require.NoError(t, err)
	assert.Equal(t, sys.ID, col.SystemID)

	_, err = f.campaigns.AddCollateral(f.ctx, f.publisher, c.ID, service.CollateralInput{
		Classification: "doctor_long",
		ContentTitle:   "Video",
		ItemType:       model.ItemVideo,
		VimeoURL:       "https://youtube.com/watch?v=1",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAddCollateralRequiresInClinicSystem(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t, model.SystemRedFlag)

	_, err := f.campaigns.AddCollateral(f.ctx, f.publisher, c.ID, service.CollateralInput{
		Classification: "patient_short",
		ContentTitle:   "Leaflet",
		ItemType:       model.ItemPDF,
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCollateralActivation(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t)
	col := f.seedCollateral(t, c)

	_, err := f.campaigns.SetCollateralActive(f.ctx, f.publisher, col.ID, false)
	require.NoError(t, err)

	all, err := f.campaigns.ListCollaterals(f.ctx, f.publisher, c.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	active, err := f.store.Collaterals().ListByCampaign(f.ctx, c.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	preview, err := f.campaigns.PreviewCollateral(f.ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, col.ContentTitle, preview.ContentTitle)

	_, err = f.campaigns.PreviewCollateral(f.ctx, 4242)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
