// Package store persists postings keyed by (source, job_id). Two
// backends exist: an embedded SQLite file for single-host runs and
// Postgres for shared deployments.
package store

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobradar/internal/config"
	"jobradar/internal/radar"
)

// Open builds the configured backend.
func Open(cfg config.StoreConfig, logger *zap.Logger) (radar.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return OpenSQLite(cfg.Path, logger)
	case "postgres":
		return OpenPostgres(cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// timestamps are stored as RFC3339 UTC strings so lexicographic
// comparison matches chronological order in both backends.
func isoUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseISO(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
