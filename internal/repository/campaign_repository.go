package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign aggregate
	Create(ctx context.Context, c *model.Campaign, kinds []model.SystemKind) (*model.RecruitmentLink, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Campaign, error)
	ListAll(ctx context.Context) ([]*model.Campaign, error)
	UpdateContact(ctx context.Context, c *model.Campaign) error
	GetRecruitmentLink(ctx context.Context, campaignID uuid.UUID) (*model.RecruitmentLink, error)

	// Systems
	CreateSystem(ctx context.Context, s *model.CampaignSystem) error
	GetSystem(ctx context.Context, campaignID uuid.UUID, kind model.SystemKind) (*model.CampaignSystem, error)
	ListSystems(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignSystem, error)
	UpdateSystem(ctx context.Context, s *model.CampaignSystem) error
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

// Create inserts the campaign, one draft system per kind and the recruitment
// link in a single transaction.
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign, kinds []model.SystemKind) (*model.RecruitmentLink, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	link := &model.RecruitmentLink{CampaignID: c.ID, Token: uuid.New()}

	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaigns (id, company_name, brand_name, expected_doctors, contact_name,
				contact_phone, contact_email, desktop_banner, mobile_banner, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID, c.CompanyName, c.BrandName, c.ExpectedDoctors, c.ContactName,
			c.ContactPhone, c.ContactEmail, c.DesktopBanner, c.MobileBanner, c.CreatedBy, c.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert campaign")
		}

		for _, kind := range kinds {
			s := &model.CampaignSystem{CampaignID: c.ID, Kind: kind, Status: model.SystemDraft}
			if err := insertSystem(ctx, tx, s); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO recruitment_links (campaign_id, token) VALUES ($1, $2)`,
			link.CampaignID, link.Token)
		return errors.Wrap(err, "insert recruitment link")
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

const campaignColumns = `id, company_name, brand_name, expected_doctors, contact_name,
	contact_phone, contact_email, desktop_banner, mobile_banner, created_by, created_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.CompanyName, &c.BrandName, &c.ExpectedDoctors, &c.ContactName,
		&c.ContactPhone, &c.ContactEmail, &c.DesktopBanner, &c.MobileBanner, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, errors.Wrap(err, "get campaign")
	}
	return c, nil
}

func (r *CampaignRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE created_by=$1 ORDER BY created_at DESC`, ownerID)
}

func (r *CampaignRepository) ListAll(ctx context.Context) ([]*model.Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
}

func (r *CampaignRepository) list(ctx context.Context, query string, args ...any) ([]*model.Campaign, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list campaigns")
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateContact never touches created_by.
func (r *CampaignRepository) UpdateContact(ctx context.Context, c *model.Campaign) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE campaigns
		SET company_name=$1, brand_name=$2, expected_doctors=$3, contact_name=$4,
			contact_phone=$5, contact_email=$6, desktop_banner=$7, mobile_banner=$8
		WHERE id=$9`,
		c.CompanyName, c.BrandName, c.ExpectedDoctors, c.ContactName,
		c.ContactPhone, c.ContactEmail, c.DesktopBanner, c.MobileBanner, c.ID)
	if err != nil {
		return errors.Wrap(err, "update campaign")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return nil
}

func (r *CampaignRepository) GetRecruitmentLink(ctx context.Context, campaignID uuid.UUID) (*model.RecruitmentLink, error) {
	link := model.RecruitmentLink{CampaignID: campaignID}
	err := r.DB.QueryRowContext(ctx,
		`SELECT token FROM recruitment_links WHERE campaign_id=$1`, campaignID).Scan(&link.Token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("recruitment link", campaignID)
		}
		return nil, errors.Wrap(err, "get recruitment link")
	}
	return &link, nil
}

// ====================== Systems ======================

func (r *CampaignRepository) CreateSystem(ctx context.Context, s *model.CampaignSystem) error {
	return insertSystem(ctx, r.DB, s)
}

func insertSystem(ctx context.Context, q queryer, s *model.CampaignSystem) error {
	if s.Status == "" {
		s.Status = model.SystemDraft
	}
	err := q.QueryRowContext(ctx, `
		INSERT INTO campaign_systems (campaign_id, system, in_charge_name, in_charge_designation,
			items_per_clinic_per_year, start_date, end_date, contract_upload, brand_logo,
			company_logo, printing_required, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		s.CampaignID, s.Kind, s.InChargeName, s.InChargeDesignation,
		s.ItemsPerClinicPerYear, s.StartDate, s.EndDate, s.ContractUpload, s.BrandLogo,
		s.CompanyLogo, s.PrintingRequired, s.Description, s.Status).Scan(&s.ID)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "uq_campaign_systems_campaign_system" {
			return appErrors.ErrDuplicateSystem
		}
		return errors.Wrap(err, "insert campaign system")
	}
	return nil
}

const systemColumns = `id, campaign_id, system, in_charge_name, in_charge_designation,
	items_per_clinic_per_year, start_date, end_date, contract_upload, brand_logo,
	company_logo, printing_required, description, status`

func scanSystem(row interface{ Scan(...any) error }) (*model.CampaignSystem, error) {
	var s model.CampaignSystem
	err := row.Scan(&s.ID, &s.CampaignID, &s.Kind, &s.InChargeName, &s.InChargeDesignation,
		&s.ItemsPerClinicPerYear, &s.StartDate, &s.EndDate, &s.ContractUpload, &s.BrandLogo,
		&s.CompanyLogo, &s.PrintingRequired, &s.Description, &s.Status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CampaignRepository) GetSystem(ctx context.Context, campaignID uuid.UUID, kind model.SystemKind) (*model.CampaignSystem, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+systemColumns+` FROM campaign_systems WHERE campaign_id=$1 AND system=$2`, campaignID, kind)
	s, err := scanSystem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("campaign system", kind)
		}
		return nil, errors.Wrap(err, "get campaign system")
	}
	return s, nil
}

func (r *CampaignRepository) ListSystems(ctx context.Context, campaignID uuid.UUID) ([]*model.CampaignSystem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+systemColumns+` FROM campaign_systems WHERE campaign_id=$1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "list campaign systems")
	}
	defer rows.Close()

	systems := []*model.CampaignSystem{}
	for rows.Next() {
		s, err := scanSystem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan campaign system")
		}
		systems = append(systems, s)
	}
	return systems, rows.Err()
}

func (r *CampaignRepository) UpdateSystem(ctx context.Context, s *model.CampaignSystem) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE campaign_systems
		SET in_charge_name=$1, in_charge_designation=$2, items_per_clinic_per_year=$3,
			start_date=$4, end_date=$5, contract_upload=$6, brand_logo=$7, company_logo=$8,
			printing_required=$9, description=$10, status=$11
		WHERE id=$12`,
		s.InChargeName, s.InChargeDesignation, s.ItemsPerClinicPerYear,
		s.StartDate, s.EndDate, s.ContractUpload, s.BrandLogo, s.CompanyLogo,
		s.PrintingRequired, s.Description, s.Status, s.ID)
	if err != nil {
		return errors.Wrap(err, "update campaign system")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("campaign system", s.ID)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
