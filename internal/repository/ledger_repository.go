package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

// LedgerRepositoryInterface covers share instances and their events in the
// operational store.
type LedgerRepositoryInterface interface {
	CreateShare(ctx context.Context, share *model.ShareInstance, initial *model.Event) error
	GetShareByCode(ctx context.Context, code string) (*model.ShareInstance, error)
	LatestShare(ctx context.Context, fieldRepID, doctorID int64) (*model.ShareInstance, error)
	MarkLinkClicked(ctx context.Context, share *model.ShareInstance, ev *model.Event) (bool, error)
	HasLinkClick(ctx context.Context, shareID int64) (bool, error)
	AppendEvent(ctx context.Context, ev *model.Event) error

	// Archival side
	OldestEvents(ctx context.Context, limit int) ([]*model.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	CountEvents(ctx context.Context) (int, error)
}

type LedgerRepository struct {
	DB *sql.DB
}

// CreateShare writes the share and its initiating event atomically. A short
// code collision surfaces as ErrShortCodeTaken so the caller can retry.
func (r *LedgerRepository) CreateShare(ctx context.Context, share *model.ShareInstance, initial *model.Event) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO share_instances (short_code, campaign_id, collateral_id, field_rep_id, doctor_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			share.ShortCode, share.CampaignID, share.CollateralID, share.FieldRepID, share.DoctorID, share.CreatedAt,
		).Scan(&share.ID)
		if err != nil {
			if constraint, ok := uniqueConstraint(err); ok && constraint == "uq_share_instances_short_code" {
				return appErrors.ErrShortCodeTaken
			}
			return errors.Wrap(err, "insert share instance")
		}

		initial.ShareInstanceID = share.ID
		return insertEvent(ctx, tx, initial)
	})
}

const shareColumns = `id, short_code, campaign_id, collateral_id, field_rep_id, doctor_id, created_at`

func scanShare(row interface{ Scan(...any) error }) (*model.ShareInstance, error) {
	var s model.ShareInstance
	if err := row.Scan(&s.ID, &s.ShortCode, &s.CampaignID, &s.CollateralID, &s.FieldRepID, &s.DoctorID, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *LedgerRepository) GetShareByCode(ctx context.Context, code string) (*model.ShareInstance, error) {
	s, err := scanShare(r.DB.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM share_instances WHERE short_code=$1`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("share", code)
		}
		return nil, errors.Wrap(err, "get share")
	}
	return s, nil
}

// LatestShare returns nil, nil when the pair has never been shared with.
func (r *LedgerRepository) LatestShare(ctx context.Context, fieldRepID, doctorID int64) (*model.ShareInstance, error) {
	s, err := scanShare(r.DB.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM share_instances
		WHERE field_rep_id=$1 AND doctor_id=$2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, fieldRepID, doctorID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "latest share")
	}
	return s, nil
}

// MarkLinkClicked claims the share's click row and appends the event only
// when the claim is new. Concurrent callers race on the primary key of
// share_clicks; exactly one of them inserts.
func (r *LedgerRepository) MarkLinkClicked(ctx context.Context, share *model.ShareInstance, ev *model.Event) (bool, error) {
	inserted := false
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO share_clicks (share_instance_id, event_id, clicked_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (share_instance_id) DO NOTHING`,
			share.ID, ev.ID, ev.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert share click")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		inserted = true
		return insertEvent(ctx, tx, ev)
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *LedgerRepository) HasLinkClick(ctx context.Context, shareID int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM share_clicks WHERE share_instance_id=$1)`, shareID).Scan(&exists)
	return exists, errors.Wrap(err, "check share click")
}

func (r *LedgerRepository) AppendEvent(ctx context.Context, ev *model.Event) error {
	return insertEvent(ctx, r.DB, ev)
}

func insertEvent(ctx context.Context, q queryer, ev *model.Event) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO events (id, event_type, campaign_id, collateral_id, field_rep_id, doctor_id,
			share_instance_id, video_percentage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.Type, ev.CampaignID, ev.CollateralID, ev.FieldRepID, ev.DoctorID,
		ev.ShareInstanceID, ev.VideoPercentage, ev.CreatedAt)
	return errors.Wrap(err, "insert event")
}

// OldestEvents selects the next archival batch.
func (r *LedgerRepository) OldestEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, event_type, campaign_id, collateral_id, field_rep_id, doctor_id,
			share_instance_id, video_percentage, created_at
		FROM events
		ORDER BY created_at, seq
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select oldest events")
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.CampaignID, &e.CollateralID, &e.FieldRepID, &e.DoctorID,
			&e.ShareInstanceID, &e.VideoPercentage, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *LedgerRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, id)
	return errors.Wrap(err, "delete event")
}

func (r *LedgerRepository) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, errors.Wrap(err, "count events")
}

var _ LedgerRepositoryInterface = (*LedgerRepository)(nil)
