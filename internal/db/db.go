// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/config"
)

// Open connects to one Postgres store and verifies it answers.
func Open(name StoreName, dsn string, cfg config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", name)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "ping %s store", name)
	}

	log.Info().Str("store", string(name)).Msg("connected to database")
	return conn, nil
}

// OpenStores connects both stores and returns a router over them.
func OpenStores(cfg config.DatabaseConfig) (*Router, error) {
	operational, err := Open(Operational, cfg.OperationalDSN, cfg)
	if err != nil {
		return nil, err
	}
	reporting, err := Open(Reporting, cfg.ReportingDSN, cfg)
	if err != nil {
		operational.Close()
		return nil, err
	}
	return NewRouter(map[StoreName]*sql.DB{
		Operational: operational,
		Reporting:   reporting,
	})
}
