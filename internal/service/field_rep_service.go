package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/auth"
	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

// CSV columns accepted by ImportFieldReps; the header must be exactly this set.
const (
	colRepName    = "field-rep-name"
	colEmail      = "email-id"
	colPhone      = "phone-number"
	colBrandRepID = "brand-supplied-field-rep-id"
)

var requiredColumns = []string{colRepName, colEmail, colPhone, colBrandRepID}

type FieldRepService struct {
	Campaigns   *CampaignService
	FieldReps   repository.FieldRepRepositoryInterface
	Doctors     repository.DoctorRepositoryInterface
	Collaterals repository.CollateralRepositoryInterface
	Ledger      *LedgerService
	Status      *StatusService
}

type ImportResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// ShareInput is what a field rep submits to share one collateral.
type ShareInput struct {
	DoctorName     string `json:"doctor_name" validate:"required,max=255"`
	DoctorWhatsApp string `json:"doctor_whatsapp" validate:"required,max=20"`
	ClinicName     string `json:"clinic_name" validate:"max=255"`
	CollateralID   int64  `json:"collateral_id" validate:"required,gt=0"`
}

type ShareResult struct {
	ShareCode   string `json:"share_code"`
	ShareURL    string `json:"share_url"`
	WhatsAppURL string `json:"whatsapp_url"`
	DoctorID    int64  `json:"doctor_id"`
}

// parseFieldRepCSV rejects the whole file when the header set differs.
func parseFieldRepCSV(r io.Reader) ([]*model.FieldRep, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, appErrors.ErrInvalidCSVHeader
	}
	if err != nil {
		return nil, appErrors.NewValidation("csv_file", err.Error())
	}

	index := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; dup {
			return nil, appErrors.ErrInvalidCSVHeader
		}
		index[h] = i
	}
	if len(index) != len(requiredColumns) {
		return nil, appErrors.ErrInvalidCSVHeader
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, appErrors.ErrInvalidCSVHeader
		}
	}

	reps := []*model.FieldRep{}
	seen := map[string]bool{}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.NewValidation("csv_file", err.Error())
		}
		rep := &model.FieldRep{
			Name:       strings.TrimSpace(rec[index[colRepName]]),
			Email:      strings.TrimSpace(rec[index[colEmail]]),
			Phone:      strings.TrimSpace(rec[index[colPhone]]),
			BrandRepID: strings.TrimSpace(rec[index[colBrandRepID]]),
		}
		if rep.BrandRepID == "" {
			return nil, appErrors.NewValidation(colBrandRepID, "empty on line "+strconv.Itoa(line))
		}
		if utf8.RuneCountInString(rep.BrandRepID) > model.MaxBrandRepIDLen {
			return nil, appErrors.NewValidation(colBrandRepID, "longer than "+strconv.Itoa(model.MaxBrandRepIDLen)+" characters on line "+strconv.Itoa(line))
		}
		if utf8.RuneCountInString(rep.Phone) > model.MaxPhoneLen {
			return nil, appErrors.NewValidation(colPhone, "longer than "+strconv.Itoa(model.MaxPhoneLen)+" characters on line "+strconv.Itoa(line))
		}
		// repeated ids in one file resolve to the first row
		if seen[rep.BrandRepID] {
			continue
		}
		seen[rep.BrandRepID] = true
		reps = append(reps, rep)
	}
	return reps, nil
}

// ImportFieldReps get-or-creates every row by brand rep id in one transaction.
func (s *FieldRepService) ImportFieldReps(ctx context.Context, p *auth.Principal, campaignID uuid.UUID, r io.Reader) (*ImportResult, error) {
	if _, err := s.Campaigns.OwnedCampaign(ctx, p, campaignID); err != nil {
		return nil, err
	}
	reps, err := parseFieldRepCSV(r)
	if err != nil {
		return nil, err
	}
	created, err := s.FieldReps.ImportBatch(ctx, campaignID, reps)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Created: created, Existing: len(reps) - created}
	log.Info().Str("campaign_id", campaignID.String()).Int("created", res.Created).Int("existing", res.Existing).Msg("field reps imported")
	return res, nil
}

func (s *FieldRepService) SetFieldRepActive(ctx context.Context, p *auth.Principal, repID int64, active bool) (*model.FieldRep, error) {
	rep, err := s.FieldReps.GetByID(ctx, repID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Campaigns.OwnedCampaign(ctx, p, rep.CampaignID); err != nil {
		return nil, err
	}
	if err := s.FieldReps.SetActive(ctx, repID, active); err != nil {
		return nil, err
	}
	rep.IsActive = active
	return rep, nil
}

// SearchFieldReps matches brand rep id or email, case-insensitively.
func (s *FieldRepService) SearchFieldReps(ctx context.Context, campaignID uuid.UUID, q string) ([]*model.FieldRep, error) {
	if _, err := s.Campaigns.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.FieldReps.Search(ctx, campaignID, q)
}

// activeRep resolves the token's field rep and refuses deactivated reps.
func (s *FieldRepService) activeRep(ctx context.Context, p *auth.Principal) (*model.FieldRep, error) {
	if p.Role != model.RoleFieldRep {
		return nil, appErrors.ErrForbidden
	}
	rep, err := s.FieldReps.GetByID(ctx, p.FieldRepID)
	if err != nil {
		return nil, err
	}
	if !rep.IsActive {
		return nil, appErrors.ErrForbidden
	}
	return rep, nil
}

func (s *FieldRepService) ShareFromFieldRep(ctx context.Context, p *auth.Principal, in ShareInput) (*ShareResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	rep, err := s.activeRep(ctx, p)
	if err != nil {
		return nil, err
	}
	campaign, err := s.Campaigns.CampaignRepo.GetByID(ctx, rep.CampaignID)
	if err != nil {
		return nil, err
	}
	collateral, err := s.Collaterals.GetByID(ctx, in.CollateralID)
	if err != nil {
		return nil, err
	}
	// a rejected share must not leave a doctor behind
	if err := checkShareableCollateral(campaign.ID, collateral); err != nil {
		return nil, err
	}

	doctor, created, err := s.Doctors.GetOrCreate(ctx, &model.Doctor{
		CampaignID:     rep.CampaignID,
		FieldRepID:     rep.ID,
		Name:           strings.TrimSpace(in.DoctorName),
		WhatsAppNumber: strings.TrimSpace(in.DoctorWhatsApp),
		ClinicName:     strings.TrimSpace(in.ClinicName),
	})
	if err != nil {
		return nil, errors.WithMessage(err, "resolve doctor")
	}
	if created {
		log.Info().Int64("doctor_id", doctor.ID).Int64("field_rep_id", rep.ID).Msg("doctor added")
	}

	share, waURL, err := s.Ledger.CreateShare(ctx, campaign, rep, doctor, collateral)
	if err != nil {
		return nil, err
	}
	return &ShareResult{
		ShareCode:   share.ShortCode,
		ShareURL:    s.Ledger.ShareLink(share.ShortCode),
		WhatsAppURL: waURL,
		DoctorID:    doctor.ID,
	}, nil
}

func (s *FieldRepService) DoctorsWithStatus(ctx context.Context, p *auth.Principal) ([]model.DoctorWithStatus, error) {
	rep, err := s.activeRep(ctx, p)
	if err != nil {
		return nil, err
	}
	doctors, err := s.Doctors.ListByFieldRep(ctx, rep.ID)
	if err != nil {
		return nil, err
	}
	out := make([]model.DoctorWithStatus, 0, len(doctors))
	for _, d := range doctors {
		status, err := s.Status.DoctorStatus(ctx, rep.ID, d.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.DoctorWithStatus{Doctor: *d, Status: status})
	}
	return out, nil
}

// ActiveCollaterals lists what the rep may share.
func (s *FieldRepService) ActiveCollaterals(ctx context.Context, p *auth.Principal) ([]*model.Collateral, error) {
	rep, err := s.activeRep(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.Collaterals.ListByCampaign(ctx, rep.CampaignID, true)
}
