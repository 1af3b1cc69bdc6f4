package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/unclebandit/medshare-backend/internal/model"
)

// ReportingRepositoryInterface is the only access path to the reporting store.
type ReportingRepositoryInterface interface {
	InsertIfAbsent(ctx context.Context, ev *model.ReportingEvent) (bool, error)
	CountDistinctDoctors(ctx context.Context, campaignID uuid.UUID, f model.ReportFilter) (int64, error)
	CountEvents(ctx context.Context, campaignID uuid.UUID) (int64, error)
	Recent(ctx context.Context, campaignID uuid.UUID, limit int) ([]*model.ReportingEvent, error)
}

type ReportingRepository struct {
	DB *gorm.DB
}

// NewReportingRepository wraps the reporting store handle handed out by the router.
func NewReportingRepository(conn *sql.DB) (*ReportingRepository, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open reporting store")
	}
	return &ReportingRepository{DB: gdb}, nil
}

func (r *ReportingRepository) Migrate(ctx context.Context) error {
	return errors.Wrap(r.DB.WithContext(ctx).AutoMigrate(&model.ReportingEvent{}), "migrate reporting store")
}

// InsertIfAbsent writes the row in its own reporting transaction and never
// overwrites an existing row with the same id. It reports whether a row was
// written; an already archived event is not an error.
func (r *ReportingRepository) InsertIfAbsent(ctx context.Context, ev *model.ReportingEvent) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(ev)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "insert reporting event")
	}
	return created, nil
}

func (r *ReportingRepository) scoped(ctx context.Context, campaignID uuid.UUID) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.ReportingEvent{}).Where("campaign_id = ?", campaignID)
}

func (r *ReportingRepository) CountDistinctDoctors(ctx context.Context, campaignID uuid.UUID, f model.ReportFilter) (int64, error) {
	q := r.scoped(ctx, campaignID)
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.MinPercentage != nil {
		q = q.Where("video_percentage >= ?", *f.MinPercentage)
	}
	if f.Percentage != nil {
		q = q.Where("video_percentage = ?", *f.Percentage)
	}

	var n int64
	err := q.Distinct("doctor_id").Count(&n).Error
	return n, errors.Wrap(err, "count distinct doctors")
}

func (r *ReportingRepository) CountEvents(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var n int64
	err := r.scoped(ctx, campaignID).Count(&n).Error
	return n, errors.Wrap(err, "count reporting events")
}

func (r *ReportingRepository) Recent(ctx context.Context, campaignID uuid.UUID, limit int) ([]*model.ReportingEvent, error) {
	events := []*model.ReportingEvent{}
	err := r.scoped(ctx, campaignID).Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, errors.Wrap(err, "recent reporting events")
}

var _ ReportingRepositoryInterface = (*ReportingRepository)(nil)
