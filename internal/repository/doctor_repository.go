package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

type DoctorRepositoryInterface interface {
	GetOrCreate(ctx context.Context, d *model.Doctor) (*model.Doctor, bool, error)
	GetByID(ctx context.Context, id int64) (*model.Doctor, error)
	ListByFieldRep(ctx context.Context, fieldRepID int64) ([]*model.Doctor, error)
}

type DoctorRepository struct {
	DB *sql.DB
}

// Idempotent insert keyed on (campaign, field rep, whatsapp number). The
// unique constraint makes concurrent first contacts converge on one row.
func (r *DoctorRepository) GetOrCreate(ctx context.Context, d *model.Doctor) (*model.Doctor, bool, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO doctors (campaign_id, field_rep_id, name, whatsapp_number, clinic_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (campaign_id, field_rep_id, whatsapp_number) DO NOTHING
		RETURNING id`,
		d.CampaignID, d.FieldRepID, d.Name, d.WhatsAppNumber, d.ClinicName, d.CreatedAt).Scan(&d.ID)
	if err == nil {
		return d, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, errors.Wrap(err, "insert doctor")
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors
		WHERE campaign_id=$1 AND field_rep_id=$2 AND whatsapp_number=$3`,
		d.CampaignID, d.FieldRepID, d.WhatsAppNumber)
	existing, err := scanDoctor(row)
	if err != nil {
		return nil, false, errors.Wrap(err, "load existing doctor")
	}
	return existing, false, nil
}

const doctorColumns = `id, campaign_id, field_rep_id, name, whatsapp_number, clinic_name, created_at`

func scanDoctor(row interface{ Scan(...any) error }) (*model.Doctor, error) {
	var d model.Doctor
	if err := row.Scan(&d.ID, &d.CampaignID, &d.FieldRepID, &d.Name, &d.WhatsAppNumber, &d.ClinicName, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*model.Doctor, error) {
	d, err := scanDoctor(r.DB.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id=$1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("doctor", id)
		}
		return nil, errors.Wrap(err, "get doctor")
	}
	return d, nil
}

func (r *DoctorRepository) ListByFieldRep(ctx context.Context, fieldRepID int64) ([]*model.Doctor, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE field_rep_id=$1 ORDER BY id`, fieldRepID)
	if err != nil {
		return nil, errors.Wrap(err, "list doctors")
	}
	defer rows.Close()

	doctors := []*model.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan doctor")
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

var _ DoctorRepositoryInterface = (*DoctorRepository)(nil)
