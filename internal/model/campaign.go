// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is owned by the publisher who created it; CreatedBy never changes.
type Campaign struct {
	ID              uuid.UUID `db:"id" json:"id"`
	CompanyName     string    `db:"company_name" json:"company_name"`
	BrandName       string    `db:"brand_name" json:"brand_name"`
	ExpectedDoctors int       `db:"expected_doctors" json:"expected_doctors"`
	ContactName     string    `db:"contact_name" json:"contact_name"`
	ContactPhone    string    `db:"contact_phone" json:"contact_phone"`
	ContactEmail    string    `db:"contact_email" json:"contact_email"`
	DesktopBanner   string    `db:"desktop_banner" json:"desktop_banner,omitempty"`
	MobileBanner    string    `db:"mobile_banner" json:"mobile_banner,omitempty"`
	CreatedBy       int64     `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// RecruitmentLink is issued once per campaign.
type RecruitmentLink struct {
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Token      uuid.UUID `db:"token" json:"token"`
}
