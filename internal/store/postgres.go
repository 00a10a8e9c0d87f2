package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"jobradar/internal/metrics"
	"jobradar/internal/radar"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    source        TEXT NOT NULL,
    job_id        TEXT NOT NULL,
    title         TEXT NOT NULL,
    company       TEXT NOT NULL,
    location      TEXT,
    url           TEXT NOT NULL,
    posted_at     TIMESTAMPTZ,
    first_seen_at TIMESTAMPTZ NOT NULL,
    last_seen_at  TIMESTAMPTZ NOT NULL,
    description   TEXT,
    score         INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (source, job_id)
);
CREATE INDEX IF NOT EXISTS idx_jobs_posted ON jobs(posted_at);
CREATE INDEX IF NOT EXISTS idx_jobs_last_seen ON jobs(last_seen_at);
CREATE INDEX IF NOT EXISTS idx_jobs_score ON jobs(score);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
`

const postgresUpsert = `
INSERT INTO jobs
(source, job_id, title, company, location, url, posted_at, first_seen_at, last_seen_at, description, score)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (source, job_id) DO UPDATE SET
    last_seen_at = excluded.last_seen_at,
    posted_at = COALESCE(jobs.posted_at, excluded.posted_at),
    description = CASE
        WHEN (jobs.description IS NULL OR jobs.description = '')
         AND (excluded.description IS NOT NULL AND excluded.description != '')
        THEN excluded.description
        ELSE jobs.description
    END,
    score = GREATEST(jobs.score, excluded.score)
`

// pgDB is the slice of the pool API the store uses. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore is the shared-deployment backend.
type PostgresStore struct {
	db     pgDB
	logger *zap.Logger
	now    func() time.Time
}

// OpenPostgres connects a pool and ensures the schema exists.
func OpenPostgres(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return newPostgresStore(pool, logger), nil
}

func newPostgresStore(db pgDB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger, now: time.Now}
}

// Upsert implements radar.Store with the same merge semantics as the
// SQLite backend.
func (s *PostgresStore) Upsert(ctx context.Context, p radar.Posting) (bool, error) {
	now := s.now().UTC()
	var postedAt *time.Time
	if p.PostedAt != nil {
		t := p.PostedAt.UTC()
		postedAt = &t
	}

	_, err := s.db.Exec(ctx, postgresUpsert,
		p.Source, p.JobID, p.Title, p.Company, p.Location, p.URL,
		postedAt, now, now, p.Description, p.Score)
	if err != nil {
		return false, fmt.Errorf("upsert %s/%s: %w", p.Source, p.JobID, err)
	}

	var one int
	err = s.db.QueryRow(ctx,
		"SELECT 1 FROM jobs WHERE source = $1 AND job_id = $2 AND first_seen_at < $3 LIMIT 1",
		p.Source, p.JobID, now).Scan(&one)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		metrics.ObserveMerge(p.Source, "inserted")
		return true, nil
	case err != nil:
		return false, fmt.Errorf("check %s/%s: %w", p.Source, p.JobID, err)
	default:
		metrics.ObserveMerge(p.Source, "updated")
		return false, nil
	}
}

// Recent implements radar.Store.
func (s *PostgresStore) Recent(ctx context.Context, sinceDays, limit int) ([]radar.Posting, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -sinceDays)
	q := `
SELECT source, job_id, title, company, location, url, posted_at, description, score
FROM jobs
WHERE posted_at IS NOT NULL AND posted_at >= $1 AND posted_at < $2
ORDER BY score DESC, posted_at DESC`
	args := []any{cutoff, now}
	if limit > 0 {
		q += " LIMIT $3"
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return scanPgPostings(rows)
}

// Feed implements radar.Store.
func (s *PostgresStore) Feed(ctx context.Context, limit int) ([]radar.Posting, error) {
	q := `
SELECT source, job_id, title, company, location, url, posted_at, description, score
FROM jobs
ORDER BY
    CASE WHEN posted_at IS NULL THEN 1 ELSE 0 END,
    posted_at DESC,
    last_seen_at DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	return scanPgPostings(rows)
}

// Close implements radar.Store.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanPgPostings(rows pgx.Rows) ([]radar.Posting, error) {
	defer rows.Close()
	var out []radar.Posting
	for rows.Next() {
		var p radar.Posting
		var location, description *string
		var postedAt *time.Time
		if err := rows.Scan(&p.Source, &p.JobID, &p.Title, &p.Company, &location,
			&p.URL, &postedAt, &description, &p.Score); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		if location != nil {
			p.Location = *location
		}
		if description != nil {
			p.Description = *description
		}
		p.PostedAt = postedAt
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return out, nil
}
