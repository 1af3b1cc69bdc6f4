package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

const (
	shortCodeBytes    = 9
	shortCodeAttempts = 5
	whatsAppSendURL   = "https://api.whatsapp.com/send"
)

// NewShortCode returns 12 URL-safe characters from 9 random bytes.
func NewShortCode() (string, error) {
	b := make([]byte, shortCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// LedgerService owns share instances and the events recorded against them.
type LedgerService struct {
	Ledger        repository.LedgerRepositoryInterface
	PublicBaseURL string

	Now     func() time.Time
	NewCode func() (string, error)
}

func NewLedgerService(ledger repository.LedgerRepositoryInterface, publicBaseURL string) *LedgerService {
	return &LedgerService{
		Ledger:        ledger,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		Now:           time.Now,
		NewCode:       NewShortCode,
	}
}

// ShareLink is the public URL a doctor opens.
func (s *LedgerService) ShareLink(code string) string {
	return s.PublicBaseURL + "/s/" + code + "/"
}

// CreateShare persists a share with its share_initiated event and returns
// the WhatsApp deep link carrying the rendered message.
func (s *LedgerService) CreateShare(ctx context.Context, campaign *model.Campaign, rep *model.FieldRep, doctor *model.Doctor, collateral *model.Collateral) (*model.ShareInstance, string, error) {
	if err := checkShareParties(campaign, rep, doctor, collateral); err != nil {
		return nil, "", err
	}

	for attempt := 1; attempt <= shortCodeAttempts; attempt++ {
		code, err := s.NewCode()
		if err != nil {
			return nil, "", err
		}

		share := &model.ShareInstance{
			ShortCode:    code,
			CampaignID:   campaign.ID,
			CollateralID: collateral.ID,
			FieldRepID:   rep.ID,
			DoctorID:     doctor.ID,
			CreatedAt:    s.Now().UTC(),
		}
		initial := model.NewEvent(share, model.EventShareInitiated, share.CreatedAt)

		err = s.Ledger.CreateShare(ctx, share, initial)
		if errors.Is(err, appErrors.ErrShortCodeTaken) {
			log.Warn().Int("attempt", attempt).Msg("short code collision, regenerating")
			continue
		}
		if err != nil {
			return nil, "", err
		}

		log.Info().
			Int64("share_id", share.ID).
			Int64("field_rep_id", rep.ID).
			Int64("doctor_id", doctor.ID).
			Int64("collateral_id", collateral.ID).
			Msg("share created")
		return share, s.whatsAppURL(doctor.WhatsAppNumber, collateral, code), nil
	}
	return nil, "", appErrors.ErrShortCodeExhausted
}

func checkShareParties(campaign *model.Campaign, rep *model.FieldRep, doctor *model.Doctor, collateral *model.Collateral) error {
	switch {
	case !rep.IsActive:
		return appErrors.NewValidation("field_rep", "field rep is inactive")
	case rep.CampaignID != campaign.ID:
		return appErrors.NewValidation("field_rep", "field rep belongs to another campaign")
	case doctor.CampaignID != campaign.ID || doctor.FieldRepID != rep.ID:
		return appErrors.NewValidation("doctor", "doctor belongs to another campaign or field rep")
	}
	return checkShareableCollateral(campaign.ID, collateral)
}

func checkShareableCollateral(campaignID uuid.UUID, collateral *model.Collateral) error {
	switch {
	case !collateral.IsActive:
		return appErrors.NewValidation("collateral", "collateral is inactive")
	case collateral.CampaignID != campaignID:
		return appErrors.NewValidation("collateral", "collateral belongs to another campaign")
	}
	return nil
}

func (s *LedgerService) whatsAppURL(phone string, collateral *model.Collateral, code string) string {
	tmpl := collateral.WhatsAppTemplate
	if strings.TrimSpace(tmpl) == "" {
		tmpl = model.DefaultMessageTemplate
	}
	msg := RenderTemplate(tmpl, map[string]string{
		strings.TrimPrefix(model.LinksPlaceholder, "$"): s.ShareLink(code),
	})

	u, _ := url.Parse(whatsAppSendURL)
	u.RawQuery = url.Values{"phone": {phone}, "text": {msg}}.Encode()
	return u.String()
}

func (s *LedgerService) ShareByCode(ctx context.Context, code string) (*model.ShareInstance, error) {
	return s.Ledger.GetShareByCode(ctx, code)
}

// EnsureLinkClicked records the share's first click. Later calls, concurrent
// or not, are no-ops. It reports whether this call recorded the click.
func (s *LedgerService) EnsureLinkClicked(ctx context.Context, share *model.ShareInstance) (bool, error) {
	ev := model.NewEvent(share, model.EventLinkClicked, s.Now().UTC())
	inserted, err := s.Ledger.MarkLinkClicked(ctx, share, ev)
	if err != nil {
		return false, err
	}
	if inserted {
		log.Info().Int64("share_id", share.ID).Msg("link clicked")
	}
	return inserted, nil
}

// RecordEvent appends one event. link_clicked keeps its at-most-once rule.
func (s *LedgerService) RecordEvent(ctx context.Context, share *model.ShareInstance, kind model.EventType, percentage *int) error {
	if !kind.Valid() {
		return appErrors.NewValidation("type", "unknown event type "+string(kind))
	}
	if kind == model.EventLinkClicked {
		_, err := s.EnsureLinkClicked(ctx, share)
		return err
	}

	ev := model.NewEvent(share, kind, s.Now().UTC())
	if kind == model.EventVideoProgress {
		if percentage == nil {
			return appErrors.NewValidation("percentage", "required for video_progress")
		}
		if *percentage < 0 || *percentage > 100 {
			return appErrors.NewValidation("percentage", "must be between 0 and 100")
		}
		p := *percentage
		ev.VideoPercentage = &p
	}
	return s.Ledger.AppendEvent(ctx, ev)
}
