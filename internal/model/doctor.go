// internal/model/doctor.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             int64     `db:"id" json:"id"`
	CampaignID     uuid.UUID `db:"campaign_id" json:"campaign_id"`
	FieldRepID     int64     `db:"field_rep_id" json:"field_rep_id"`
	Name           string    `db:"name" json:"name"`
	WhatsAppNumber string    `db:"whatsapp_number" json:"whatsapp_number"`
	ClinicName     string    `db:"clinic_name" json:"clinic_name,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type DoctorStatus string

const (
	StatusSendMessage  DoctorStatus = "Send Message"
	StatusSent         DoctorStatus = "Sent"
	StatusRead         DoctorStatus = "Read"
	StatusSendReminder DoctorStatus = "Send Reminder"
)

// DoctorWithStatus is what a field rep sees in their share list.
type DoctorWithStatus struct {
	Doctor
	Status DoctorStatus `json:"status"`
}
