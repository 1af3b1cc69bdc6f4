// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventShareInitiated EventType = "share_initiated"
	EventLinkClicked    EventType = "link_clicked"
	EventLandingAccess  EventType = "landing_access"
	EventVideoProgress  EventType = "video_progress"
	EventPDFLastPage    EventType = "pdf_last_page"
	EventPDFDownloaded  EventType = "pdf_downloaded"
)

func (t EventType) Valid() bool {
	switch t {
	case EventShareInitiated, EventLinkClicked, EventLandingAccess,
		EventVideoProgress, EventPDFLastPage, EventPDFDownloaded:
		return true
	}
	return false
}

// Event is an append-only engagement fact in the operational store.
type Event struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Type            EventType `db:"event_type" json:"event_type"`
	CampaignID      uuid.UUID `db:"campaign_id" json:"campaign_id"`
	CollateralID    int64     `db:"collateral_id" json:"collateral_id"`
	FieldRepID      int64     `db:"field_rep_id" json:"field_rep_id"`
	DoctorID        int64     `db:"doctor_id" json:"doctor_id"`
	ShareInstanceID int64     `db:"share_instance_id" json:"share_instance_id"`
	VideoPercentage *int      `db:"video_percentage" json:"video_percentage,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// NewEvent copies the share's references into a fresh event.
func NewEvent(share *ShareInstance, kind EventType, at time.Time) *Event {
	return &Event{
		ID:              uuid.New(),
		Type:            kind,
		CampaignID:      share.CampaignID,
		CollateralID:    share.CollateralID,
		FieldRepID:      share.FieldRepID,
		DoctorID:        share.DoctorID,
		ShareInstanceID: share.ID,
		CreatedAt:       at,
	}
}
