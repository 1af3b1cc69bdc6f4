// internal/model/reporting.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportingEvent is the reporting-store copy of an Event. Foreign keys are
// plain values; the reporting store never joins back to operational rows.
type ReportingEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventType       EventType `gorm:"size:32;not null;index:idx_reporting_events_campaign_type,priority:2" json:"event_type"`
	CampaignID      uuid.UUID `gorm:"type:uuid;not null;index:idx_reporting_events_campaign_type,priority:1" json:"campaign_id"`
	CollateralID    int64     `gorm:"not null" json:"collateral_id"`
	FieldRepID      int64     `gorm:"not null" json:"field_rep_id"`
	DoctorID        int64     `gorm:"not null" json:"doctor_id"`
	ShareInstanceID int64     `gorm:"not null" json:"share_instance_id"`
	VideoPercentage *int      `json:"video_percentage,omitempty"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`
}

func (ReportingEvent) TableName() string { return "reporting_events" }

// ReportingEventFrom denormalizes an operational event.
func ReportingEventFrom(e *Event) *ReportingEvent {
	return &ReportingEvent{
		ID:              e.ID,
		EventType:       e.Type,
		CampaignID:      e.CampaignID,
		CollateralID:    e.CollateralID,
		FieldRepID:      e.FieldRepID,
		DoctorID:        e.DoctorID,
		ShareInstanceID: e.ShareInstanceID,
		VideoPercentage: e.VideoPercentage,
		CreatedAt:       e.CreatedAt,
	}
}

// ReportFilter narrows a distinct-doctor count.
type ReportFilter struct {
	EventType     EventType
	MinPercentage *int
	Percentage    *int
}

type ReportSummary struct {
	UniqueDoctors int64 `json:"unique_doctors"`
	Clicked       int64 `json:"clicked"`
	Downloads     int64 `json:"downloads"`
	LastPage      int64 `json:"last_page"`
	Video50       int64 `json:"video_50"`
	Video100      int64 `json:"video_100"`
	Total         int64 `json:"total"`
}

// SyncReport is the outcome of one archival pass.
type SyncReport struct {
	Selected    int       `json:"selected"`
	Transferred int       `json:"transferred"`
	Failed      int       `json:"failed"`
	FailedIDs   []string  `json:"failed_ids,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
