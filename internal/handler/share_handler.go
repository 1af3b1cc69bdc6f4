// internal/handler/share_handler.go
package handler

import (
	"encoding/json"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/cache"
	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
	"github.com/unclebandit/medshare-backend/internal/respond"
	"github.com/unclebandit/medshare-backend/internal/service"
)

const (
	SessionCookie = "medshare_session"

	verifyPrompt   = "Enter your WhatsApp number to view this content."
	verifyMismatch = "The number does not match our records. Please try again."
)

// ShareLinkHandler serves the doctor-facing short links.
type ShareLinkHandler struct {
	Ledger      *service.LedgerService
	Doctors     repository.DoctorRepositoryInterface
	Collaterals repository.CollateralRepositoryInterface
	Claims      cache.ClaimStore
	// SecureCookie marks the session cookie Secure; set outside development.
	SecureCookie bool
}

type promptResponse struct {
	ShareCode string `json:"share_code"`
	Verified  bool   `json:"verified"`
	Message   string `json:"message"`
}

func (h *ShareLinkHandler) share(w http.ResponseWriter, r *http.Request) (*model.ShareInstance, bool) {
	share, err := h.Ledger.ShareByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}
	return share, true
}

// session returns the browser's session id, issuing a new cookie if needed.
func (h *ShareLinkHandler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *ShareLinkHandler) verified(r *http.Request, share *model.ShareInstance) (bool, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false, nil
	}
	return h.Claims.Verified(r.Context(), c.Value, share.ID)
}

func landingPath(code string) string { return "/s/" + code + "/landing/" }
func promptPath(code string) string  { return "/s/" + code + "/" }

// Open records the first click and asks for the doctor's number.
func (h *ShareLinkHandler) Open(w http.ResponseWriter, r *http.Request) {
	share, ok := h.share(w, r)
	if !ok {
		return
	}
	if _, err := h.Ledger.EnsureLinkClicked(r.Context(), share); err != nil {
		respond.Error(w, r, err)
		return
	}

	done, err := h.verified(r, share)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if done {
		http.Redirect(w, r, landingPath(share.ShortCode), http.StatusFound)
		return
	}
	h.session(w, r)
	respond.JSON(w, http.StatusOK, promptResponse{ShareCode: share.ShortCode, Message: verifyPrompt})
}

// Verify compares the submitted number with the doctor's. A mismatch is
// not an error: the prompt is shown again. A post without a prior open
// still counts as the click.
func (h *ShareLinkHandler) Verify(w http.ResponseWriter, r *http.Request) {
	share, ok := h.share(w, r)
	if !ok {
		return
	}
	if _, err := h.Ledger.EnsureLinkClicked(r.Context(), share); err != nil {
		respond.Error(w, r, err)
		return
	}
	phone, err := phoneFrom(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	doctor, err := h.Doctors.GetByID(r.Context(), share.DoctorID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sessionID := h.session(w, r)
	if phone == "" || phone != strings.TrimSpace(doctor.WhatsAppNumber) {
		log.Info().Str("short_code", share.ShortCode).Msg("verification mismatch")
		respond.JSON(w, http.StatusOK, promptResponse{ShareCode: share.ShortCode, Message: verifyMismatch})
		return
	}

	if err := h.Ledger.RecordEvent(r.Context(), share, model.EventLandingAccess, nil); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.Claims.Grant(r.Context(), sessionID, share.ID); err != nil {
		respond.Error(w, r, err)
		return
	}
	http.Redirect(w, r, landingPath(share.ShortCode), http.StatusFound)
}

func phoneFrom(w http.ResponseWriter, r *http.Request) (string, error) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var body struct {
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
			return "", appErrors.NewValidation("", "invalid body")
		}
		return strings.TrimSpace(body.Phone), nil
	}
	return strings.TrimSpace(r.FormValue("phone")), nil
}

type landingResponse struct {
	ShareCode  string            `json:"share_code"`
	Collateral *model.Collateral `json:"collateral"`
	TrackURL   string            `json:"track_url"`
}

// Landing shows the collateral to a verified session only.
func (h *ShareLinkHandler) Landing(w http.ResponseWriter, r *http.Request) {
	share, ok := h.share(w, r)
	if !ok {
		return
	}
	done, err := h.verified(r, share)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if !done {
		http.Redirect(w, r, promptPath(share.ShortCode), http.StatusFound)
		return
	}

	col, err := h.Collaterals.GetByID(r.Context(), share.CollateralID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, landingResponse{
		ShareCode:  share.ShortCode,
		Collateral: col,
		TrackURL:   "/s/" + share.ShortCode + "/track/",
	})
}

// Track records an engagement event reported by the landing page.
func (h *ShareLinkHandler) Track(w http.ResponseWriter, r *http.Request) {
	share, ok := h.share(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind := model.EventType(q.Get("type"))
	if kind == model.EventShareInitiated {
		respond.Error(w, r, appErrors.NewValidation("type", "share_initiated cannot be tracked"))
		return
	}
	// percentage only means something for video progress
	var pct *int
	if kind == model.EventVideoProgress {
		var err error
		if pct, err = parsePercentage(q.Get("percentage")); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	if err := h.Ledger.RecordEvent(r.Context(), share, kind, pct); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parsePercentage truncates fractional values reported by video players.
func parsePercentage(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return nil, appErrors.NewValidation("percentage", "must be a number")
	}
	if f < 0 || f > 100 {
		return nil, appErrors.NewValidation("percentage", "must be between 0 and 100")
	}
	n := int(f)
	return &n, nil
}
