// internal/model/campaign_system.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type SystemKind string

const (
	SystemRedFlag  SystemKind = "red_flag"
	SystemPatient  SystemKind = "patient"
	SystemInClinic SystemKind = "inclinic"
)

func (k SystemKind) Valid() bool {
	switch k {
	case SystemRedFlag, SystemPatient, SystemInClinic:
		return true
	}
	return false
}

type SystemStatus string

const (
	SystemDraft  SystemStatus = "draft"
	SystemActive SystemStatus = "active"
)

func (s SystemStatus) Valid() bool {
	return s == SystemDraft || s == SystemActive
}

// CampaignSystem is unique per (campaign, kind).
type CampaignSystem struct {
	ID                    int64        `db:"id" json:"id"`
	CampaignID            uuid.UUID    `db:"campaign_id" json:"campaign_id"`
	Kind                  SystemKind   `db:"system" json:"system"`
	InChargeName          string       `db:"in_charge_name" json:"in_charge_name"`
	InChargeDesignation   string       `db:"in_charge_designation" json:"in_charge_designation"`
	ItemsPerClinicPerYear int          `db:"items_per_clinic_per_year" json:"items_per_clinic_per_year"`
	StartDate             *time.Time   `db:"start_date" json:"start_date,omitempty"`
	EndDate               *time.Time   `db:"end_date" json:"end_date,omitempty"`
	ContractUpload        string       `db:"contract_upload" json:"contract_upload,omitempty"`
	BrandLogo             string       `db:"brand_logo" json:"brand_logo,omitempty"`
	CompanyLogo           string       `db:"company_logo" json:"company_logo,omitempty"`
	PrintingRequired      bool         `db:"printing_required" json:"printing_required"`
	Description           string       `db:"description" json:"description"`
	Status                SystemStatus `db:"status" json:"status"`
}
