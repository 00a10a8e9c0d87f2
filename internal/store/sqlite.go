package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"jobradar/internal/metrics"
	"jobradar/internal/radar"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    source        TEXT NOT NULL,
    job_id        TEXT NOT NULL,
    title         TEXT NOT NULL,
    company       TEXT NOT NULL,
    location      TEXT,
    url           TEXT NOT NULL,
    posted_at     TEXT,
    first_seen_at TEXT NOT NULL,
    last_seen_at  TEXT NOT NULL,
    description   TEXT,
    score         INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (source, job_id)
);
CREATE INDEX IF NOT EXISTS idx_jobs_first_seen ON jobs(first_seen_at);
CREATE INDEX IF NOT EXISTS idx_jobs_posted ON jobs(posted_at);
CREATE INDEX IF NOT EXISTS idx_jobs_last_seen ON jobs(last_seen_at);
CREATE INDEX IF NOT EXISTS idx_jobs_score ON jobs(score);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
`

const sqliteUpsert = `
INSERT INTO jobs
(source, job_id, title, company, location, url, posted_at, first_seen_at, last_seen_at, description, score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, job_id) DO UPDATE SET
    last_seen_at = excluded.last_seen_at,
    posted_at = COALESCE(jobs.posted_at, excluded.posted_at),
    description = CASE
        WHEN (jobs.description IS NULL OR jobs.description = '')
         AND (excluded.description IS NOT NULL AND excluded.description != '')
        THEN excluded.description
        ELSE jobs.description
    END,
    score = MAX(jobs.score, excluded.score)
`

// SQLiteStore is the embedded backend.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite opens (and if needed creates) the database file.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The driver serializes access; a single connection avoids
	// SQLITE_BUSY under concurrent upserts.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Upsert implements radar.Store. Existing rows keep their original
// posted_at and first_seen_at; last_seen_at always advances and the
// score can only grow.
func (s *SQLiteStore) Upsert(ctx context.Context, p radar.Posting) (bool, error) {
	nowISO := isoUTC(s.now())
	var postedAt any
	if p.PostedAt != nil {
		postedAt = isoUTC(*p.PostedAt)
	}

	_, err := s.db.ExecContext(ctx, sqliteUpsert,
		p.Source, p.JobID, p.Title, p.Company, p.Location, p.URL,
		postedAt, nowISO, nowISO, p.Description, p.Score)
	if err != nil {
		return false, fmt.Errorf("upsert %s/%s: %w", p.Source, p.JobID, err)
	}

	// An earlier first_seen_at means the row predates this run.
	var one int
	err = s.db.QueryRowContext(ctx,
		"SELECT 1 FROM jobs WHERE source = ? AND job_id = ? AND first_seen_at < ? LIMIT 1",
		p.Source, p.JobID, nowISO).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.ObserveMerge(p.Source, "inserted")
		return true, nil
	case err != nil:
		return false, fmt.Errorf("check %s/%s: %w", p.Source, p.JobID, err)
	default:
		metrics.ObserveMerge(p.Source, "updated")
		return false, nil
	}
}

// Recent implements radar.Store: dated postings from the last sinceDays
// days, best scores first.
func (s *SQLiteStore) Recent(ctx context.Context, sinceDays, limit int) ([]radar.Posting, error) {
	now := s.now()
	cutoff := isoUTC(now.AddDate(0, 0, -sinceDays))
	q := `
SELECT source, job_id, title, company, location, url, posted_at, description, score
FROM jobs
WHERE posted_at IS NOT NULL AND posted_at >= ? AND posted_at < ?
ORDER BY score DESC, posted_at DESC`
	args := []any{cutoff, isoUTC(now)}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return scanPostings(rows)
}

// Feed implements radar.Store: dated postings first, newest first, then
// undated rows by last sighting.
func (s *SQLiteStore) Feed(ctx context.Context, limit int) ([]radar.Posting, error) {
	q := `
SELECT source, job_id, title, company, location, url, posted_at, description, score
FROM jobs
ORDER BY
    CASE WHEN posted_at IS NULL THEN 1 ELSE 0 END,
    posted_at DESC,
    last_seen_at DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	return scanPostings(rows)
}

// Close implements radar.Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanPostings(rows *sql.Rows) ([]radar.Posting, error) {
	defer func() { _ = rows.Close() }()
	var out []radar.Posting
	for rows.Next() {
		var p radar.Posting
		var location, postedAt, description sql.NullString
		if err := rows.Scan(&p.Source, &p.JobID, &p.Title, &p.Company, &location,
			&p.URL, &postedAt, &description, &p.Score); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		p.Location = location.String
		p.Description = description.String
		if postedAt.Valid {
			p.PostedAt = parseISO(postedAt.String)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return out, nil
}
