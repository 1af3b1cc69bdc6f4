// internal/model/field_rep.go
package model

import "github.com/google/uuid"

// FieldRep is deactivated rather than deleted so shares stay valid.
type FieldRep struct {
	ID         int64     `db:"id" json:"id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	BrandRepID string    `db:"brand_rep_id" json:"brand_rep_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}
