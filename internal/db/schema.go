package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// operationalSchema is idempotent so every binary can apply it on start.
var operationalSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          VARCHAR(32) NOT NULL CHECK (role IN ('publisher', 'brand_manager')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id               UUID PRIMARY KEY,
		company_name     TEXT NOT NULL,
		brand_name       TEXT NOT NULL,
		expected_doctors INTEGER NOT NULL DEFAULT 0 CHECK (expected_doctors >= 0),
		contact_name     TEXT NOT NULL,
		contact_phone    VARCHAR(20) NOT NULL,
		contact_email    TEXT NOT NULL,
		desktop_banner   TEXT NOT NULL DEFAULT '',
		mobile_banner    TEXT NOT NULL DEFAULT '',
		created_by       BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS recruitment_links (
		campaign_id UUID PRIMARY KEY REFERENCES campaigns(id) ON DELETE CASCADE,
		token       UUID NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_systems (
		id                        BIGSERIAL PRIMARY KEY,
		campaign_id               UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		system                    VARCHAR(32) NOT NULL CHECK (system IN ('red_flag', 'patient', 'inclinic')),
		in_charge_name            TEXT NOT NULL DEFAULT '',
		in_charge_designation     TEXT NOT NULL DEFAULT '',
		items_per_clinic_per_year INTEGER NOT NULL DEFAULT 0,
		start_date                DATE,
		end_date                  DATE,
		contract_upload           TEXT NOT NULL DEFAULT '',
		brand_logo                TEXT NOT NULL DEFAULT '',
		company_logo              TEXT NOT NULL DEFAULT '',
		printing_required         BOOLEAN NOT NULL DEFAULT FALSE,
		description               TEXT NOT NULL DEFAULT '',
		status                    VARCHAR(16) NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active')),
		CONSTRAINT uq_campaign_systems_campaign_system UNIQUE (campaign_id, system)
	)`,
	`CREATE TABLE IF NOT EXISTS field_reps (
		id           BIGSERIAL PRIMARY KEY,
		campaign_id  UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		brand_rep_id VARCHAR(64) NOT NULL,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL,
		phone        VARCHAR(20) NOT NULL,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT uq_field_reps_campaign_brand_rep UNIQUE (campaign_id, brand_rep_id)
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id              BIGSERIAL PRIMARY KEY,
		campaign_id     UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		field_rep_id    BIGINT NOT NULL REFERENCES field_reps(id) ON DELETE CASCADE,
		name            TEXT NOT NULL,
		whatsapp_number VARCHAR(20) NOT NULL,
		clinic_name     TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_doctors_campaign_rep_whatsapp UNIQUE (campaign_id, field_rep_id, whatsapp_number)
	)`,
	// stores created before whatsapp_number held international numbers
	`ALTER TABLE doctors ALTER COLUMN whatsapp_number TYPE VARCHAR(20)`,
	`CREATE TABLE IF NOT EXISTS collaterals (
		id                  BIGSERIAL PRIMARY KEY,
		campaign_id         UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		system_id           BIGINT NOT NULL REFERENCES campaign_systems(id) ON DELETE CASCADE,
		cycle               VARCHAR(64) NOT NULL DEFAULT 'default',
		classification      VARCHAR(64) NOT NULL,
		content_title       TEXT NOT NULL,
		content_id          TEXT NOT NULL DEFAULT '',
		item_type           VARCHAR(10) NOT NULL CHECK (item_type IN ('pdf', 'video', 'both')),
		pdf_file            TEXT NOT NULL DEFAULT '',
		vimeo_url           TEXT NOT NULL DEFAULT '',
		banner_1            TEXT NOT NULL DEFAULT '',
		banner_2            TEXT NOT NULL DEFAULT '',
		doctor_name         TEXT NOT NULL DEFAULT '',
		content_description TEXT NOT NULL DEFAULT '',
		webinar_link        TEXT NOT NULL DEFAULT '',
		webinar_title       TEXT NOT NULL DEFAULT '',
		webinar_description TEXT NOT NULL DEFAULT '',
		webinar_date        DATE,
		whatsapp_template   TEXT NOT NULL DEFAULT 'Please review: $collateralLinks',
		is_active           BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS share_instances (
		id            BIGSERIAL PRIMARY KEY,
		short_code    VARCHAR(24) NOT NULL,
		campaign_id   UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		collateral_id BIGINT NOT NULL REFERENCES collaterals(id) ON DELETE CASCADE,
		field_rep_id  BIGINT NOT NULL REFERENCES field_reps(id) ON DELETE CASCADE,
		doctor_id     BIGINT NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_share_instances_short_code UNIQUE (short_code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_share_instances_rep_doctor
		ON share_instances (field_rep_id, doctor_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS share_clicks (
		share_instance_id BIGINT PRIMARY KEY REFERENCES share_instances(id) ON DELETE CASCADE,
		event_id          UUID NOT NULL,
		clicked_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id                UUID PRIMARY KEY,
		event_type        VARCHAR(32) NOT NULL CHECK (event_type IN (
			'share_initiated', 'link_clicked', 'landing_access',
			'video_progress', 'pdf_last_page', 'pdf_downloaded')),
		campaign_id       UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		collateral_id     BIGINT NOT NULL REFERENCES collaterals(id) ON DELETE CASCADE,
		field_rep_id      BIGINT NOT NULL REFERENCES field_reps(id) ON DELETE CASCADE,
		doctor_id         BIGINT NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
		share_instance_id BIGINT NOT NULL REFERENCES share_instances(id) ON DELETE CASCADE,
		video_percentage  INTEGER CHECK (video_percentage BETWEEN 0 AND 100),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		seq               BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at, seq)`,
}

// MigrateOperational creates the operational tables.
func MigrateOperational(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range operationalSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate operational store")
		}
	}
	return nil
}
