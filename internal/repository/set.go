package repository

import (
	"context"

	"github.com/unclebandit/medshare-backend/internal/db"
)

// Set is every repository the services need.
type Set struct {
	Users       UserRepositoryInterface
	Campaigns   CampaignRepositoryInterface
	FieldReps   FieldRepRepositoryInterface
	Doctors     DoctorRepositoryInterface
	Collaterals CollateralRepositoryInterface
	Ledger      LedgerRepositoryInterface
	Reporting   ReportingRepositoryInterface
}

// NewPostgresSet binds each repository to the store its entity is routed to.
func NewPostgresSet(router *db.Router) (Set, error) {
	reporting, err := NewReportingRepository(router.For(db.EntityReportingEvent))
	if err != nil {
		return Set{}, err
	}
	return Set{
		Users:       &UserRepository{DB: router.For(db.EntityUser)},
		Campaigns:   &CampaignRepository{DB: router.For(db.EntityCampaign)},
		FieldReps:   &FieldRepRepository{DB: router.For(db.EntityFieldRep)},
		Doctors:     &DoctorRepository{DB: router.For(db.EntityDoctor)},
		Collaterals: &CollateralRepository{DB: router.For(db.EntityCollateral)},
		Ledger:      &LedgerRepository{DB: router.For(db.EntityEvent)},
		Reporting:   reporting,
	}, nil
}

// Migrate creates the schema of both stores.
func Migrate(ctx context.Context, router *db.Router) error {
	if err := db.MigrateOperational(ctx, router.Store(db.Operational)); err != nil {
		return err
	}
	reporting, err := NewReportingRepository(router.Store(db.Reporting))
	if err != nil {
		return err
	}
	return reporting.Migrate(ctx)
}
