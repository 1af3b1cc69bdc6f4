package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/auth"
	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	CollateralRepo repository.CollateralRepositoryInterface
}

// CampaignInput is the publisher-editable part of a campaign.
type CampaignInput struct {
	CompanyName     string `json:"company_name" validate:"required,max=255"`
	BrandName       string `json:"brand_name" validate:"required,max=255"`
	ExpectedDoctors int    `json:"expected_doctors" validate:"min=0"`
	ContactName     string `json:"contact_name" validate:"required,max=255"`
	ContactPhone    string `json:"contact_phone" validate:"required,max=20"`
	ContactEmail    string `json:"contact_email" validate:"required,email"`
	DesktopBanner   string `json:"desktop_banner" validate:"omitempty,max=512"`
	MobileBanner    string `json:"mobile_banner" validate:"omitempty,max=512"`
}

func (in CampaignInput) apply(c *model.Campaign) {
	c.CompanyName = strings.TrimSpace(in.CompanyName)
	c.BrandName = strings.TrimSpace(in.BrandName)
	c.ExpectedDoctors = in.ExpectedDoctors
	c.ContactName = strings.TrimSpace(in.ContactName)
	c.ContactPhone = strings.TrimSpace(in.ContactPhone)
	c.ContactEmail = strings.TrimSpace(in.ContactEmail)
	c.DesktopBanner = in.DesktopBanner
	c.MobileBanner = in.MobileBanner
}

// SystemConfig is the kind-specific configuration of a campaign system.
type SystemConfig struct {
	InChargeName          string             `json:"in_charge_name" validate:"max=255"`
	InChargeDesignation   string             `json:"in_charge_designation" validate:"max=255"`
	ItemsPerClinicPerYear int                `json:"items_per_clinic_per_year" validate:"min=0"`
	StartDate             *time.Time         `json:"start_date"`
	EndDate               *time.Time         `json:"end_date"`
	ContractUpload        string             `json:"contract_upload"`
	BrandLogo             string             `json:"brand_logo"`
	CompanyLogo           string             `json:"company_logo"`
	PrintingRequired      bool               `json:"printing_required"`
	Description           string             `json:"description"`
	Status                model.SystemStatus `json:"status" validate:"omitempty,oneof=draft active"`
}

// CollateralInput describes a new collateral.
type CollateralInput struct {
	Cycle              string         `json:"cycle" validate:"max=64"`
	Classification     string         `json:"classification" validate:"required,oneof=doctor_long doctor_short patient_long patient_short"`
	ContentTitle       string         `json:"content_title" validate:"required,max=255"`
	ContentID          string         `json:"content_id" validate:"max=255"`
	ItemType           model.ItemType `json:"item_type" validate:"required,oneof=pdf video both"`
	PDFFile            string         `json:"pdf_file"`
	VimeoURL           string         `json:"vimeo_url" validate:"omitempty,url"`
	Banner1            string         `json:"banner_1"`
	Banner2            string         `json:"banner_2"`
	DoctorName         string         `json:"doctor_name" validate:"max=255"`
	ContentDescription string         `json:"content_description"`
	WebinarLink        string         `json:"webinar_link" validate:"omitempty,url"`
	WebinarTitle       string         `json:"webinar_title" validate:"max=255"`
	WebinarDescription string         `json:"webinar_description"`
	WebinarDate        *time.Time     `json:"webinar_date"`
	WhatsAppTemplate   string         `json:"whatsapp_template"`
}

// CampaignResult is what a publisher sees after creating a campaign.
type CampaignResult struct {
	Campaign         *model.Campaign         `json:"campaign"`
	Systems          []*model.CampaignSystem `json:"systems"`
	RecruitmentToken uuid.UUID               `json:"recruitment_token"`
}

func (s *CampaignService) CreateCampaign(ctx context.Context, p *auth.Principal, in CampaignInput, kinds []model.SystemKind) (*CampaignResult, error) {
	if p.Role != model.RolePublisher {
		return nil, appErrors.ErrForbidden
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	seen := map[model.SystemKind]bool{}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, appErrors.NewValidation("systems", "unknown system "+string(k))
		}
		if seen[k] {
			return nil, appErrors.ErrDuplicateSystem
		}
		seen[k] = true
	}

	c := &model.Campaign{CreatedBy: p.UserID}
	in.apply(c)
	if _, err := s.CampaignRepo.Create(ctx, c, kinds); err != nil {
		return nil, err
	}
	log.Info().Str("campaign_id", c.ID.String()).Int64("owner", p.UserID).Int("systems", len(kinds)).Msg("campaign created")
	return s.CampaignResult(ctx, c.ID)
}

func (s *CampaignService) CampaignResult(ctx context.Context, id uuid.UUID) (*CampaignResult, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	systems, err := s.CampaignRepo.ListSystems(ctx, id)
	if err != nil {
		return nil, err
	}
	link, err := s.CampaignRepo.GetRecruitmentLink(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CampaignResult{Campaign: c, Systems: systems, RecruitmentToken: link.Token}, nil
}

// OwnedCampaign loads a campaign the caller created.
func (s *CampaignService) OwnedCampaign(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != model.RolePublisher || c.CreatedBy != p.UserID {
		return nil, appErrors.ErrForbidden
	}
	return c, nil
}

func (s *CampaignService) UpdateContact(ctx context.Context, p *auth.Principal, id uuid.UUID, in CampaignInput) (*model.Campaign, error) {
	c, err := s.OwnedCampaign(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.CampaignRepo.UpdateContact(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) AddSystem(ctx context.Context, p *auth.Principal, id uuid.UUID, kind model.SystemKind) (*model.CampaignSystem, error) {
	if !kind.Valid() {
		return nil, appErrors.NewValidation("system", "unknown system "+string(kind))
	}
	if _, err := s.OwnedCampaign(ctx, p, id); err != nil {
		return nil, err
	}
	sys := &model.CampaignSystem{CampaignID: id, Kind: kind, Status: model.SystemDraft}
	if err := s.CampaignRepo.CreateSystem(ctx, sys); err != nil {
		return nil, err
	}
	return sys, nil
}

// ConfigureSystem replaces the system's configuration. An empty status
// keeps the current one.
func (s *CampaignService) ConfigureSystem(ctx context.Context, p *auth.Principal, id uuid.UUID, kind model.SystemKind, cfg SystemConfig) (*model.CampaignSystem, error) {
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	if cfg.StartDate != nil && cfg.EndDate != nil && cfg.EndDate.Before(*cfg.StartDate) {
		return nil, appErrors.NewValidation("end_date", "must not be before start_date")
	}
	sys, err := s.ownedSystem(ctx, p, id, kind)
	if err != nil {
		return nil, err
	}

	sys.InChargeName = cfg.InChargeName
	sys.InChargeDesignation = cfg.InChargeDesignation
	sys.ItemsPerClinicPerYear = cfg.ItemsPerClinicPerYear
	sys.StartDate = cfg.StartDate
	sys.EndDate = cfg.EndDate
	sys.ContractUpload = cfg.ContractUpload
	sys.BrandLogo = cfg.BrandLogo
	sys.CompanyLogo = cfg.CompanyLogo
	sys.PrintingRequired = cfg.PrintingRequired
	sys.Description = cfg.Description
	if cfg.Status != "" {
		sys.Status = cfg.Status
	}
	if err := s.CampaignRepo.UpdateSystem(ctx, sys); err != nil {
		return nil, err
	}
	return sys, nil
}

// Activate moves a draft system to active. Active systems stay active.
func (s *CampaignService) Activate(ctx context.Context, p *auth.Principal, id uuid.UUID, kind model.SystemKind) (*model.CampaignSystem, error) {
	sys, err := s.ownedSystem(ctx, p, id, kind)
	if err != nil {
		return nil, err
	}
	if sys.Status == model.SystemActive {
		return sys, nil
	}
	sys.Status = model.SystemActive
	if err := s.CampaignRepo.UpdateSystem(ctx, sys); err != nil {
		return nil, err
	}
	return sys, nil
}

func (s *CampaignService) ownedSystem(ctx context.Context, p *auth.Principal, id uuid.UUID, kind model.SystemKind) (*model.CampaignSystem, error) {
	if !kind.Valid() {
		return nil, appErrors.NewValidation("system", "unknown system "+string(kind))
	}
	if _, err := s.OwnedCampaign(ctx, p, id); err != nil {
		return nil, err
	}
	return s.CampaignRepo.GetSystem(ctx, id, kind)
}

// Dashboard lists own campaigns for publishers and every campaign for brand managers.
func (s *CampaignService) Dashboard(ctx context.Context, p *auth.Principal) ([]*model.Campaign, error) {
	switch p.Role {
	case model.RolePublisher:
		return s.CampaignRepo.ListByOwner(ctx, p.UserID)
	case model.RoleBrandManager:
		return s.CampaignRepo.ListAll(ctx)
	}
	return nil, appErrors.ErrForbidden
}

// ====================== Collaterals ======================

// AddCollateral binds the collateral to the campaign's in-clinic system.
func (s *CampaignService) AddCollateral(ctx context.Context, p *auth.Principal, campaignID uuid.UUID, in CollateralInput) (*model.Collateral, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.VimeoURL != "" && !strings.Contains(in.VimeoURL, "vimeo.com") {
		return nil, appErrors.NewValidation("vimeo_url", "only Vimeo URLs are allowed")
	}
	if _, err := s.OwnedCampaign(ctx, p, campaignID); err != nil {
		return nil, err
	}
	sys, err := s.CampaignRepo.GetSystem(ctx, campaignID, model.SystemInClinic)
	if err != nil {
		return nil, err
	}

	c := &model.Collateral{
		CampaignID:         campaignID,
		SystemID:           sys.ID,
		Cycle:              in.Cycle,
		Classification:     in.Classification,
		ContentTitle:       in.ContentTitle,
		ContentID:          in.ContentID,
		ItemType:           in.ItemType,
		PDFFile:            in.PDFFile,
		VimeoURL:           in.VimeoURL,
		Banner1:            in.Banner1,
		Banner2:            in.Banner2,
		DoctorName:         in.DoctorName,
		ContentDescription: in.ContentDescription,
		WebinarLink:        in.WebinarLink,
		WebinarTitle:       in.WebinarTitle,
		WebinarDescription: in.WebinarDescription,
		WebinarDate:        in.WebinarDate,
		WhatsAppTemplate:   in.WhatsAppTemplate,
		IsActive:           true,
	}
	if strings.TrimSpace(c.Cycle) == "" {
		c.Cycle = "default"
	}
	if strings.TrimSpace(c.WhatsAppTemplate) == "" {
		c.WhatsAppTemplate = model.DefaultMessageTemplate
	}
	if err := s.CollateralRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) SetCollateralActive(ctx context.Context, p *auth.Principal, collateralID int64, active bool) (*model.Collateral, error) {
	c, err := s.CollateralRepo.GetByID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	if _, err := s.OwnedCampaign(ctx, p, c.CampaignID); err != nil {
		return nil, err
	}
	if err := s.CollateralRepo.SetActive(ctx, collateralID, active); err != nil {
		return nil, err
	}
	c.IsActive = active
	return c, nil
}

func (s *CampaignService) ListCollaterals(ctx context.Context, p *auth.Principal, campaignID uuid.UUID) ([]*model.Collateral, error) {
	if _, err := s.OwnedCampaign(ctx, p, campaignID); err != nil {
		return nil, err
	}
	return s.CollateralRepo.ListByCampaign(ctx, campaignID, false)
}

func (s *CampaignService) PreviewCollateral(ctx context.Context, collateralID int64) (*model.Collateral, error) {
	c, err := s.CollateralRepo.GetByID(ctx, collateralID)
	if err != nil {
		return nil, errors.WithMessage(err, "preview collateral")
	}
	return c, nil
}
