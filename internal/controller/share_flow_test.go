package controller_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/medshare-backend/internal/handler"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/service"
)

type sharedWorld struct {
	campaignID string
	collateral model.Collateral
	publisher  string
	fieldRep   string
}

func (a *api) seedSharedWorld(t *testing.T) sharedWorld {
	t.Helper()
	pub := a.userToken(t, "pub", model.RolePublisher)
	id := a.createCampaign(t, pub)
	base := "/publisher/campaigns/" + id

	csv := "field-rep-name,email-id,phone-number,brand-supplied-field-rep-id\nRavi,ravi@acme.test,9000000001,BR-1\n"
	w := a.do(t, call{method: http.MethodPost, path: base + "/field-reps/upload", token: pub, body: strings.NewReader(csv), ctype: "text/csv"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, call{method: http.MethodPost, path: base + "/collaterals", token: pub, json: map[string]any{
		"classification": "doctor_short",
		"content_title":  "Hypertension basics",
		"item_type":      "video",
		"vimeo_url":      "https://vimeo.com/123456",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	col := decode[model.Collateral](t, w)

	w = a.do(t, call{method: http.MethodPost, path: "/field/login", json: map[string]string{
		"campaign_id":  id,
		"field_rep_id": "BR-1",
		"email":        "Ravi@Acme.test",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return sharedWorld{
		campaignID: id,
		collateral: col,
		publisher:  pub,
		fieldRep:   decode[service.TokenResponse](t, w).AccessToken,
	}
}

type doctorRow struct {
	Name   string             `json:"name"`
	Status model.DoctorStatus `json:"status"`
}

func (a *api) doctorStatuses(t *testing.T, token string) []doctorRow {
	t.Helper()
	w := a.do(t, call{method: http.MethodGet, path: "/field/doctors", token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		Doctors []doctorRow `json:"doctors"`
	}](t, w).Doctors
}

func TestFieldLoginRejectsUnknownRep(t *testing.T) {
	a := newAPI(t)
	ws := a.seedSharedWorld(t)

	w := a.do(t, call{method: http.MethodPost, path: "/field/login", json: map[string]string{
		"campaign_id": ws.campaignID, "field_rep_id": "BR-9", "email": "ravi@acme.test",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, call{method: http.MethodPost, path: "/field/login", json: map[string]string{
		"campaign_id": "nope", "field_rep_id": "BR-1", "email": "ravi@acme.test",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShareLinkFlow(t *testing.T) {
	a := newAPI(t)
	ws := a.seedSharedWorld(t)

	assert.Empty(t, a.doctorStatuses(t, ws.fieldRep))

	w := a.do(t, call{method: http.MethodPost, path: "/field/share", token: ws.fieldRep, json: map[string]any{
		"doctor_name":     "Dr. Iyer",
		"doctor_whatsapp": "919811111111",
		"collateral_id":   ws.collateral.ID,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	share := decode[service.ShareResult](t, w)
	require.NotEmpty(t, share.ShareCode)
	assert.Contains(t, share.WhatsAppURL, "phone=919811111111")

	rows := a.doctorStatuses(t, ws.fieldRep)
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusSent, rows[0].Status)

	prompt := "/s/" + share.ShareCode + "/"
	landing := prompt + "landing/"

	w = a.do(t, call{method: http.MethodGet, path: prompt})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == handler.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	cookies := []*http.Cookie{session}

	rows = a.doctorStatuses(t, ws.fieldRep)
	assert.Equal(t, model.StatusRead, rows[0].Status)

	t.Run("landing needs verification", func(t *testing.T) {
		w := a.do(t, call{method: http.MethodGet, path: landing, cookies: cookies})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, prompt, w.Header().Get("Location"))
	})

	t.Run("wrong number re-prompts", func(t *testing.T) {
		w := a.do(t, call{method: http.MethodPost, path: prompt, cookies: cookies,
			body: formBody(url.Values{"phone": {"919800000000"}}), ctype: "application/x-www-form-urlencoded"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decode[struct {
			Verified bool `json:"verified"`
		}](t, w).Verified)
	})

	t.Run("right number opens landing", func(t *testing.T) {
		w := a.do(t, call{method: http.MethodPost, path: prompt, cookies: cookies,
			body: formBody(url.Values{"phone": {" 919811111111 "}}), ctype: "application/x-www-form-urlencoded"})
		require.Equal(t, http.StatusFound, w.Code, w.Body.String())
		assert.Equal(t, landing, w.Header().Get("Location"))

		w = a.do(t, call{method: http.MethodGet, path: landing, cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[struct {
			Collateral model.Collateral `json:"collateral"`
		}](t, w)
		assert.Equal(t, ws.collateral.ID, got.Collateral.ID)

		w = a.do(t, call{method: http.MethodGet, path: prompt, cookies: cookies})
		assert.Equal(t, http.StatusFound, w.Code)

		// another browser has no claim
		w = a.do(t, call{method: http.MethodGet, path: landing})
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("track", func(t *testing.T) {
		w := a.do(t, call{method: http.MethodGet, path: prompt + "track/?type=video_progress&percentage=50.7"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

		for _, q := range []string{"type=share_initiated", "type=video_progress", "type=bogus", "type=video_progress&percentage=abc", "type=video_progress&percentage=140"} {
			w = a.do(t, call{method: http.MethodGet, path: prompt + "track/?" + q})
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}

		w = a.do(t, call{method: http.MethodGet, path: prompt + "track/?type=pdf_downloaded&percentage=abc"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = a.do(t, call{method: http.MethodGet, path: "/s/doesnotexist/track/?type=pdf_downloaded"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = a.do(t, call{method: http.MethodGet, path: "/s/doesnotexist/"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	report, err := a.svc.Archival.Sync(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Transferred)
	assert.Zero(t, report.Failed)

	brand := a.userToken(t, "brand", model.RoleBrandManager)
	w = a.do(t, call{method: http.MethodGet, path: "/brand/campaigns/" + ws.campaignID + "/reports", token: brand})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[service.CampaignReport](t, w)
	assert.Equal(t, &model.ReportSummary{
		UniqueDoctors: 1,
		Clicked:       1,
		Downloads:     1,
		Video50:       1,
		Total:         5,
	}, got.Summary)
	assert.Len(t, got.Events, 5)

	// status survives archival
	rows = a.doctorStatuses(t, ws.fieldRep)
	assert.Equal(t, model.StatusRead, rows[0].Status)
}

func TestBrandRoutes(t *testing.T) {
	a := newAPI(t)
	ws := a.seedSharedWorld(t)
	brand := a.userToken(t, "brand", model.RoleBrandManager)

	w := a.do(t, call{method: http.MethodGet, path: "/brand/campaigns/" + ws.campaignID + "/field-reps?q=br-1", token: brand})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reps := decode[struct {
		FieldReps []model.FieldRep `json:"field_reps"`
	}](t, w).FieldReps
	require.Len(t, reps, 1)

	w = a.do(t, call{method: http.MethodGet, path: "/brand/campaigns/6f1c0f5e-7d4e-4a55-9a57-8d9b8d1f0a11/reports", token: brand})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/brand/campaigns/" + ws.campaignID + "/reports", token: ws.publisher})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// a deactivated rep keeps a valid token but can no longer share
	w = a.do(t, call{method: http.MethodPatch, path: "/publisher/field-reps/" + itoa(reps[0].ID), token: ws.publisher,
		json: map[string]bool{"is_active": false}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, call{method: http.MethodPost, path: "/field/share", token: ws.fieldRep, json: map[string]any{
		"doctor_name": "Dr. Iyer", "doctor_whatsapp": "919811111111", "collateral_id": ws.collateral.ID,
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyWithoutOpenCountsClick(t *testing.T) {
	a := newAPI(t)
	ws := a.seedSharedWorld(t)

	w := a.do(t, call{method: http.MethodPost, path: "/field/share", token: ws.fieldRep, json: map[string]any{
		"doctor_name":     "Dr. Iyer",
		"doctor_whatsapp": "+919811111111",
		"collateral_id":   ws.collateral.ID,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	share := decode[service.ShareResult](t, w)
	prompt := "/s/" + share.ShareCode + "/"

	w = a.do(t, call{method: http.MethodPost, path: prompt,
		body: formBody(url.Values{"phone": {"919800000000"}}), ctype: "application/x-www-form-urlencoded"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rows := a.doctorStatuses(t, ws.fieldRep)
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusRead, rows[0].Status)

	w = a.do(t, call{method: http.MethodPost, path: prompt,
		body: formBody(url.Values{"phone": {"+919811111111"}}), ctype: "application/x-www-form-urlencoded"})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	// share_initiated, one link_clicked, landing_access
	report, err := a.svc.Archival.Sync(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Transferred)
}

func TestShareRejectsOversizedNumber(t *testing.T) {
	a := newAPI(t)
	ws := a.seedSharedWorld(t)

	w := a.do(t, call{method: http.MethodPost, path: "/field/share", token: ws.fieldRep, json: map[string]any{
		"doctor_name":     "Dr. Iyer",
		"doctor_whatsapp": strings.Repeat("9", model.MaxPhoneLen+1),
		"collateral_id":   ws.collateral.ID,
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Empty(t, a.doctorStatuses(t, ws.fieldRep))
}
