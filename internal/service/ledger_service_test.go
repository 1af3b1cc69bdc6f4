package service_test

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/service"
)

func TestNewShortCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := service.NewShortCode()
		require.NoError(t, err)
		assert.Len(t, code, 12)
		assert.NotContains(t, code, "/")
		assert.NotContains(t, code, "+")
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestCreateShareWritesShareAndInitialEvent(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)

	share, waURL, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, w.collateral)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.ShareCount())
	events := f.store.EventsFor(share.ID, "")
	require.Len(t, events, 1)
	assert.Equal(t, model.EventShareInitiated, events[0].Type)
	assert.Equal(t, w.doctor.ID, events[0].DoctorID)
	assert.Equal(t, w.collateral.ID, events[0].CollateralID)

	u, err := url.Parse(waURL)
	require.NoError(t, err)
	assert.Equal(t, "api.whatsapp.com", u.Host)
	assert.Equal(t, w.doctor.WhatsAppNumber, u.Query().Get("phone"))
	assert.Equal(t, "Please review: http://medshare.test/s/"+share.ShortCode+"/", u.Query().Get("text"))
}

func TestCreateShareUsesCollateralTemplate(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)
	w.collateral.WhatsAppTemplate = "Hello doctor, watch $collateralLinks today"

	share, waURL, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, w.collateral)
	require.NoError(t, err)

	u, _ := url.Parse(waURL)
	assert.Equal(t, "Hello doctor, watch http://medshare.test/s/"+share.ShortCode+"/ today", u.Query().Get("text"))
}

func TestCreateShareIsAtomic(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)
	f.store.FailNextEvent = errors.New("disk full")

	_, _, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, w.collateral)
	require.Error(t, err)

	assert.Equal(t, 0, f.store.ShareCount())
	n, _ := f.store.Ledger().CountEvents(f.ctx)
	assert.Zero(t, n)
}

func TestCreateShareRetriesShortCodeCollision(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)

	f.ledger.NewCode = func() (string, error) { return "AAAAAAAAAAAA", nil }
	first := f.share(t, w)
	assert.Equal(t, "AAAAAAAAAAAA", first.ShortCode)

	codes := []string{"AAAAAAAAAAAA", "AAAAAAAAAAAA", "BBBBBBBBBBBB"}
	f.ledger.NewCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	second := f.share(t, w)
	assert.Equal(t, "BBBBBBBBBBBB", second.ShortCode)
	assert.Equal(t, 2, f.store.ShareCount())
}

func TestCreateShareGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)
	f.ledger.NewCode = func() (string, error) { return "AAAAAAAAAAAA", nil }
	f.share(t, w)

	_, _, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, w.collateral)
	assert.ErrorIs(t, err, appErrors.ErrShortCodeExhausted)
	assert.Equal(t, 1, f.store.ShareCount())
}

func TestCreateShareRejectsInactiveParties(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)

	inactiveCollateral := *w.collateral
	inactiveCollateral.IsActive = false
	_, _, err := f.ledger.CreateShare(f.ctx, w.campaign, w.rep, w.doctor, &inactiveCollateral)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	inactiveRep := *w.rep
	inactiveRep.IsActive = false
	_, _, err = f.ledger.CreateShare(f.ctx, w.campaign, &inactiveRep, w.doctor, w.collateral)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	other := f.seedCampaign(t)
	_, _, err = f.ledger.CreateShare(f.ctx, other, w.rep, w.doctor, w.collateral)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Equal(t, 0, f.store.ShareCount())
}

func TestEnsureLinkClickedConcurrent(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)
	share := f.share(t, w)

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	recorded := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.ledger.EnsureLinkClicked(f.ctx, share)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, recorded)
	assert.Len(t, f.store.EventsFor(share.ID, model.EventLinkClicked), 1)
}

func TestEnsureLinkClickedSurvivesArchival(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)
	share := f.share(t, w)

	_, err := f.ledger.EnsureLinkClicked(f.ctx, share)
	require.NoError(t, err)
	_, err = f.archival.Sync(f.ctx, 0)
	require.NoError(t, err)
	require.Empty(t, f.store.EventsFor(share.ID, ""))

	ok, err := f.ledger.EnsureLinkClicked(f.ctx, share)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.store.EventsFor(share.ID, model.EventLinkClicked))
}

func TestRecordEvent(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorld(t)
	share := f.share(t, w)
	pct := func(v int) *int { return &v }

	t.Run("video progress requires percentage", func(t *testing.T) {
		err := f.ledger.RecordEvent(f.ctx, share, model.EventVideoProgress, nil)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	})

	t.Run("video progress range checked", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.RecordEvent(f.ctx, share, model.EventVideoProgress, pct(101)), appErrors.ErrValidation)
		assert.ErrorIs(t, f.ledger.RecordEvent(f.ctx, share, model.EventVideoProgress, pct(-1)), appErrors.ErrValidation)
		require.NoError(t, f.ledger.RecordEvent(f.ctx, share, model.EventVideoProgress, pct(100)))

		events := f.store.EventsFor(share.ID, model.EventVideoProgress)
		require.Len(t, events, 1)
		require.NotNil(t, events[0].VideoPercentage)
		assert.Equal(t, 100, *events[0].VideoPercentage)
	})

	t.Run("percentage ignored for other kinds", func(t *testing.T) {
		require.NoError(t, f.ledger.RecordEvent(f.ctx, share, model.EventPDFDownloaded, pct(40)))
		events := f.store.EventsFor(share.ID, model.EventPDFDownloaded)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].VideoPercentage)
	})

	t.Run("non click kinds may recur", func(t *testing.T) {
		require.NoError(t, f.ledger.RecordEvent(f.ctx, share, model.EventLandingAccess, nil))
		require.NoError(t, f.ledger.RecordEvent(f.ctx, share, model.EventLandingAccess, nil))
		assert.Len(t, f.store.EventsFor(share.ID, model.EventLandingAccess), 2)
	})

	t.Run("link clicked stays unique", func(t *testing.T) {
		require.NoError(t, f.ledger.RecordEvent(f.ctx, share, model.EventLinkClicked, nil))
		require.NoError(t, f.ledger.RecordEvent(f.ctx, share, model.EventLinkClicked, nil))
		assert.Len(t, f.store.EventsFor(share.ID, model.EventLinkClicked), 1)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		err := f.ledger.RecordEvent(f.ctx, share, model.EventType("page_view"), nil)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	})
}

func TestRenderTemplate(t *testing.T) {
	out := service.RenderTemplate("See $link and $linkText", map[string]string{
		"link":     "A",
		"linkText": "B",
	})
	assert.Equal(t, "See A and B", out)
	assert.True(t, strings.HasPrefix(service.RenderTemplate("$x", nil), "$x"))
}
