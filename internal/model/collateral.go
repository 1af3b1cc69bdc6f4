// internal/model/collateral.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// LinksPlaceholder is substituted with the share link when a message is built.
const LinksPlaceholder = "$collateralLinks"

const DefaultMessageTemplate = "Please review: " + LinksPlaceholder

type ItemType string

const (
	ItemPDF   ItemType = "pdf"
	ItemVideo ItemType = "video"
	ItemBoth  ItemType = "both"
)

type Collateral struct {
	ID                 int64      `db:"id" json:"id"`
	CampaignID         uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	SystemID           int64      `db:"system_id" json:"system_id"`
	Cycle              string     `db:"cycle" json:"cycle"`
	Classification     string     `db:"classification" json:"classification"`
	ContentTitle       string     `db:"content_title" json:"content_title"`
	ContentID          string     `db:"content_id" json:"content_id,omitempty"`
	ItemType           ItemType   `db:"item_type" json:"item_type"`
	PDFFile            string     `db:"pdf_file" json:"pdf_file,omitempty"`
	VimeoURL           string     `db:"vimeo_url" json:"vimeo_url,omitempty"`
	Banner1            string     `db:"banner_1" json:"banner_1,omitempty"`
	Banner2            string     `db:"banner_2" json:"banner_2,omitempty"`
	DoctorName         string     `db:"doctor_name" json:"doctor_name,omitempty"`
	ContentDescription string     `db:"content_description" json:"content_description,omitempty"`
	WebinarLink        string     `db:"webinar_link" json:"webinar_link,omitempty"`
	WebinarTitle       string     `db:"webinar_title" json:"webinar_title,omitempty"`
	WebinarDescription string     `db:"webinar_description" json:"webinar_description,omitempty"`
	WebinarDate        *time.Time `db:"webinar_date" json:"webinar_date,omitempty"`
	WhatsAppTemplate   string     `db:"whatsapp_template" json:"whatsapp_template"`
	IsActive           bool       `db:"is_active" json:"is_active"`
}
