package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

type CollateralRepositoryInterface interface {
	Create(ctx context.Context, c *model.Collateral) error
	GetByID(ctx context.Context, id int64) (*model.Collateral, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, activeOnly bool) ([]*model.Collateral, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type CollateralRepository struct {
	DB *sql.DB
}

func (r *CollateralRepository) Create(ctx context.Context, c *model.Collateral) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO collaterals (campaign_id, system_id, cycle, classification, content_title, content_id,
			item_type, pdf_file, vimeo_url, banner_1, banner_2, doctor_name, content_description,
			webinar_link, webinar_title, webinar_description, webinar_date, whatsapp_template, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`,
		c.CampaignID, c.SystemID, c.Cycle, c.Classification, c.ContentTitle, c.ContentID,
		c.ItemType, c.PDFFile, c.VimeoURL, c.Banner1, c.Banner2, c.DoctorName, c.ContentDescription,
		c.WebinarLink, c.WebinarTitle, c.WebinarDescription, c.WebinarDate, c.WhatsAppTemplate, c.IsActive,
	).Scan(&c.ID)
	return errors.Wrap(err, "insert collateral")
}

const collateralColumns = `id, campaign_id, system_id, cycle, classification, content_title, content_id,
	item_type, pdf_file, vimeo_url, banner_1, banner_2, doctor_name, content_description,
	webinar_link, webinar_title, webinar_description, webinar_date, whatsapp_template, is_active`

func scanCollateral(row interface{ Scan(...any) error }) (*model.Collateral, error) {
	var c model.Collateral
	err := row.Scan(&c.ID, &c.CampaignID, &c.SystemID, &c.Cycle, &c.Classification, &c.ContentTitle, &c.ContentID,
		&c.ItemType, &c.PDFFile, &c.VimeoURL, &c.Banner1, &c.Banner2, &c.DoctorName, &c.ContentDescription,
		&c.WebinarLink, &c.WebinarTitle, &c.WebinarDescription, &c.WebinarDate, &c.WhatsAppTemplate, &c.IsActive)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollateralRepository) GetByID(ctx context.Context, id int64) (*model.Collateral, error) {
	c, err := scanCollateral(r.DB.QueryRowContext(ctx, `SELECT `+collateralColumns+` FROM collaterals WHERE id=$1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("collateral", id)
		}
		return nil, errors.Wrap(err, "get collateral")
	}
	return c, nil
}

func (r *CollateralRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, activeOnly bool) ([]*model.Collateral, error) {
	query := `SELECT ` + collateralColumns + ` FROM collaterals WHERE campaign_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "list collaterals")
	}
	defer rows.Close()

	collaterals := []*model.Collateral{}
	for rows.Next() {
		c, err := scanCollateral(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan collateral")
		}
		collaterals = append(collaterals, c)
	}
	return collaterals, rows.Err()
}

func (r *CollateralRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE collaterals SET is_active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return errors.Wrap(err, "update collateral")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("collateral", id)
	}
	return nil
}

var _ CollateralRepositoryInterface = (*CollateralRepository)(nil)
