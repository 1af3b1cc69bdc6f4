package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

// FieldRepRepositoryInterface defines methods used by service
type FieldRepRepositoryInterface interface {
	ImportBatch(ctx context.Context, campaignID uuid.UUID, reps []*model.FieldRep) (created int, err error)
	GetByID(ctx context.Context, id int64) (*model.FieldRep, error)
	FindActiveForLogin(ctx context.Context, campaignID uuid.UUID, brandRepID, email string) (*model.FieldRep, error)
	Search(ctx context.Context, campaignID uuid.UUID, q string) ([]*model.FieldRep, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// FieldRepRepository is the concrete implementation
type FieldRepRepository struct {
	DB *sql.DB
}

// ImportBatch get-or-creates every rep by (campaign, brand rep id) in one
// transaction. Existing reps are left untouched.
func (r *FieldRepRepository) ImportBatch(ctx context.Context, campaignID uuid.UUID, reps []*model.FieldRep) (int, error) {
	created := 0
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		for _, rep := range reps {
			rep.CampaignID = campaignID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO field_reps (campaign_id, brand_rep_id, name, email, phone, is_active)
				VALUES ($1, $2, $3, $4, $5, TRUE)
				ON CONFLICT (campaign_id, brand_rep_id) DO NOTHING
				RETURNING id, is_active`,
				campaignID, rep.BrandRepID, rep.Name, rep.Email, rep.Phone).Scan(&rep.ID, &rep.IsActive)
			if err == sql.ErrNoRows {
				existing := tx.QueryRowContext(ctx, `SELECT `+fieldRepColumns+`
					FROM field_reps WHERE campaign_id=$1 AND brand_rep_id=$2`, campaignID, rep.BrandRepID)
				found, err := scanFieldRep(existing)
				if err != nil {
					return errors.Wrap(err, "load existing field rep")
				}
				*rep = *found
				continue
			}
			if err != nil {
				return errors.Wrap(err, "insert field rep")
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

const fieldRepColumns = `id, campaign_id, brand_rep_id, name, email, phone, is_active`

func scanFieldRep(row interface{ Scan(...any) error }) (*model.FieldRep, error) {
	var f model.FieldRep
	if err := row.Scan(&f.ID, &f.CampaignID, &f.BrandRepID, &f.Name, &f.Email, &f.Phone, &f.IsActive); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID fetches a field rep by ID
func (r *FieldRepRepository) GetByID(ctx context.Context, id int64) (*model.FieldRep, error) {
	f, err := scanFieldRep(r.DB.QueryRowContext(ctx, `SELECT `+fieldRepColumns+` FROM field_reps WHERE id=$1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("field rep", id)
		}
		return nil, errors.Wrap(err, "get field rep")
	}
	return f, nil
}

func (r *FieldRepRepository) FindActiveForLogin(ctx context.Context, campaignID uuid.UUID, brandRepID, email string) (*model.FieldRep, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+fieldRepColumns+` FROM field_reps
		WHERE campaign_id=$1 AND brand_rep_id=$2 AND LOWER(email)=LOWER($3) AND is_active`,
		campaignID, brandRepID, email)
	f, err := scanFieldRep(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("field rep", brandRepID)
		}
		return nil, errors.Wrap(err, "find field rep")
	}
	return f, nil
}

// Search matches brand rep id or email, case-insensitively.
func (r *FieldRepRepository) Search(ctx context.Context, campaignID uuid.UUID, q string) ([]*model.FieldRep, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	rows, err := r.DB.QueryContext(ctx, `SELECT `+fieldRepColumns+` FROM field_reps
		WHERE campaign_id=$1 AND (brand_rep_id ILIKE $2 OR email ILIKE $2)
		ORDER BY id`, campaignID, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search field reps")
	}
	defer rows.Close()

	reps := []*model.FieldRep{}
	for rows.Next() {
		f, err := scanFieldRep(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan field rep")
		}
		reps = append(reps, f)
	}
	return reps, rows.Err()
}

func (r *FieldRepRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE field_reps SET is_active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return errors.Wrap(err, "update field rep")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("field rep", id)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ FieldRepRepositoryInterface = (*FieldRepRepository)(nil)
