// internal/model/share.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ShareInstance is immutable once created. ShortCode is the only
// identifier that leaves the system.
type ShareInstance struct {
	ID           int64     `db:"id" json:"id"`
	ShortCode    string    `db:"short_code" json:"short_code"`
	CampaignID   uuid.UUID `db:"campaign_id" json:"campaign_id"`
	CollateralID int64     `db:"collateral_id" json:"collateral_id"`
	FieldRepID   int64     `db:"field_rep_id" json:"field_rep_id"`
	DoctorID     int64     `db:"doctor_id" json:"doctor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ShareClick marks the first click on a share. It stays in the operational
// store after the link_clicked event itself has been archived.
type ShareClick struct {
	ShareInstanceID int64     `db:"share_instance_id" json:"share_instance_id"`
	EventID         uuid.UUID `db:"event_id" json:"event_id"`
	ClickedAt       time.Time `db:"clicked_at" json:"clicked_at"`
}
