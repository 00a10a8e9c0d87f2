// Package report renders the feed exports: the machine-readable JSON
// payload, paginated Markdown pages, the README feed block, and the
// recency report deduplicated against the previous export.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"go.uber.org/zap"

	"jobradar/internal/config"
	"jobradar/internal/radar"
)

const (
	readmeJobsStart = "<!-- JOBS:START -->"
	readmeJobsEnd   = "<!-- JOBS:END -->"
)

var pageFileRe = regexp.MustCompile(`^jobs_page_(\d+)\.md$`)

// Exporter writes feed artifacts for one store.
type Exporter struct {
	store  radar.Store
	cfg    config.ReportConfig
	logger *zap.Logger
	now    func() time.Time
}

// New builds an Exporter.
func New(store radar.Store, cfg config.ReportConfig, logger *zap.Logger) *Exporter {
	return &Exporter{store: store, cfg: cfg, logger: logger, now: time.Now}
}

type feedPayload struct {
	GeneratedAt string          `json:"generated_at"`
	Count       int             `json:"count"`
	Jobs        []radar.Posting `json:"jobs"`
}

func (e *Exporter) pagesDir() string { return filepath.Join(e.cfg.OutDir, "pages") }

// ExportJSON writes the full feed to <out_dir>/jobs.json and returns
// the path written.
func (e *Exporter) ExportJSON(ctx context.Context) (string, error) {
	jobs, err := e.store.Feed(ctx, 0)
	if err != nil {
		return "", fmt.Errorf("query feed: %w", err)
	}
	payload := feedPayload{
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
		Count:       len(jobs),
		Jobs:        jobs,
	}
	out := filepath.Join(e.cfg.OutDir, "jobs.json")
	if err := writeJSON(out, payload); err != nil {
		return "", err
	}
	e.logger.Info("feed JSON exported", zap.String("path", out), zap.Int("jobs", len(jobs)))
	return out, nil
}

// ExportFeed writes the paginated Markdown pages and injects page one
// into the README between the feed markers.
func (e *Exporter) ExportFeed(ctx context.Context) error {
	jobs, err := e.store.Feed(ctx, 0)
	if err != nil {
		return fmt.Errorf("query feed: %w", err)
	}

	totalPages, err := e.writePages(jobs)
	if err != nil {
		return err
	}

	pageOne := jobs
	if len(pageOne) > e.cfg.PageSize {
		pageOne = pageOne[:e.cfg.PageSize]
	}
	if err := e.injectReadme(pageOne, totalPages); err != nil {
		return err
	}

	e.logger.Info("feed pages exported",
		zap.Int("jobs", len(jobs)),
		zap.Int("pages", totalPages),
		zap.String("readme", e.cfg.ReadmePath))
	return nil
}

// writePages renders one Markdown file per page and removes leftover
// pages from earlier, larger runs.
func (e *Exporter) writePages(jobs []radar.Posting) (int, error) {
	pageSize := e.cfg.PageSize
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (len(jobs) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if err := os.MkdirAll(e.pagesDir(), 0o755); err != nil {
		return 0, fmt.Errorf("create pages dir: %w", err)
	}

	for page := 1; page <= totalPages; page++ {
		start := (page - 1) * pageSize
		end := start + pageSize
		if end > len(jobs) {
			end = len(jobs)
		}
		body := e.renderPage(jobs[start:end], page, totalPages)
		path := filepath.Join(e.pagesDir(), fmt.Sprintf("jobs_page_%d.md", page))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return 0, fmt.Errorf("write page %d: %w", page, err)
		}
	}

	if err := e.removeStalePages(totalPages); err != nil {
		return 0, err
	}
	return totalPages, nil
}

func (e *Exporter) renderPage(jobs []radar.Posting, page, totalPages int) []byte {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.H1f("Jobs Feed (Page %d/%d)", page, totalPages)
	md.PlainText("")
	md.PlainTextf("_Last updated: %s_", e.now().Format("2006-01-02 15:04 MST"))

	nav := pageNav(page, totalPages, false)
	if nav != "" {
		md.PlainText("")
		md.PlainText(nav)
	}
	md.PlainText("")
	md.Table(jobsTable(jobs))
	if nav != "" {
		md.PlainText(nav)
		md.PlainText("")
	}
	md.PlainText("[Back to README](../../README.md)")
	_ = md.Build()
	return buf.Bytes()
}

// removeStalePages unlinks page files numbered beyond the current run.
func (e *Exporter) removeStalePages(totalPages int) error {
	entries, err := os.ReadDir(e.pagesDir())
	if err != nil {
		return fmt.Errorf("scan pages dir: %w", err)
	}
	for _, entry := range entries {
		m := pageFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > totalPages {
			if err := os.Remove(filepath.Join(e.pagesDir(), entry.Name())); err != nil {
				return fmt.Errorf("remove stale page: %w", err)
			}
		}
	}
	return nil
}

// injectReadme replaces the feed block between the START/END markers.
// A missing README or missing markers is repaired, never an error.
func (e *Exporter) injectReadme(jobs []radar.Posting, totalPages int) error {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.PlainTextf("_Last updated: %s_", e.now().Format("2006-01-02 15:04 MST"))
	nav := pageNav(1, totalPages, true)
	if nav != "" {
		md.PlainText("")
		md.PlainText(nav)
	}
	md.PlainText("")
	md.Table(jobsTable(jobs))
	if nav != "" {
		md.PlainText(nav)
	}
	_ = md.Build()
	content := strings.TrimRight(buf.String(), "\n") + "\n"

	text, err := os.ReadFile(e.cfg.ReadmePath)
	if os.IsNotExist(err) {
		text = []byte("# Job Radar\n\n" + readmeJobsStart + "\n" + readmeJobsEnd + "\n")
	} else if err != nil {
		return fmt.Errorf("read readme: %w", err)
	}

	readme := string(text)
	if !strings.Contains(readme, readmeJobsStart) || !strings.Contains(readme, readmeJobsEnd) {
		readme = strings.TrimRight(readme, "\n") +
			"\n\n## Jobs\n\n" + readmeJobsStart + "\n" + readmeJobsEnd + "\n"
	}

	before, rest, _ := strings.Cut(readme, readmeJobsStart)
	_, after, _ := strings.Cut(rest, readmeJobsEnd)
	updated := before + readmeJobsStart + "\n" + content + readmeJobsEnd + after

	if err := os.WriteFile(e.cfg.ReadmePath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}
	return nil
}

// RecentResult describes one recency report.
type RecentResult struct {
	Path    string
	Rows    int
	Deduped int
	Against string
}

type recentPayload struct {
	GeneratedAt string          `json:"generated_at"`
	Days        int             `json:"days"`
	Count       int             `json:"count"`
	Jobs        []radar.Posting `json:"jobs"`
}

// Recent exports postings published within the last N days, minus any
// posting already present in the most recent prior report.
func (e *Exporter) Recent(ctx context.Context, days int) (RecentResult, error) {
	jobs, err := e.store.Recent(ctx, days, 0)
	if err != nil {
		return RecentResult{}, fmt.Errorf("query recent: %w", err)
	}

	prev := e.latestRecentReport()
	var deduped int
	if prev != "" {
		seen := loadReportKeys(prev)
		if len(seen) > 0 {
			kept := jobs[:0:0]
			for _, j := range jobs {
				if seen[j.Key()] {
					deduped++
					continue
				}
				kept = append(kept, j)
			}
			jobs = kept
		}
	}

	now := e.now()
	out := filepath.Join(e.cfg.OutDir,
		fmt.Sprintf("jobs_posted_last%dd_%s.json", days, now.Format("20060102_1504")))
	payload := recentPayload{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Days:        days,
		Count:       len(jobs),
		Jobs:        jobs,
	}
	if err := writeJSON(out, payload); err != nil {
		return RecentResult{}, err
	}

	res := RecentResult{Path: out, Rows: len(jobs), Deduped: deduped, Against: prev}
	e.logger.Info("recency report exported",
		zap.String("path", out),
		zap.Int("rows", res.Rows),
		zap.Int("deduped", res.Deduped))
	return res, nil
}

// latestRecentReport returns the newest prior report file, or "".
func (e *Exporter) latestRecentReport() string {
	matches, err := filepath.Glob(filepath.Join(e.cfg.OutDir, "jobs_posted_last*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Slice(matches, func(i, j int) bool {
		fi, errI := os.Stat(matches[i])
		fj, errJ := os.Stat(matches[j])
		if errI != nil || errJ != nil {
			return matches[i] > matches[j]
		}
		return fi.ModTime().After(fj.ModTime())
	})
	return matches[0]
}

// loadReportKeys reads the (source, job_id) keys of a prior report. An
// unreadable or malformed file yields no keys.
func loadReportKeys(path string) map[radar.PostingKey]bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var payload recentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	keys := make(map[radar.PostingKey]bool, len(payload.Jobs))
	for _, j := range payload.Jobs {
		keys[j.Key()] = true
	}
	return keys
}

func jobsTable(jobs []radar.Posting) markdown.TableSet {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		posted := "-"
		if j.PostedAt != nil {
			posted = j.PostedAt.UTC().Format("2006-01-02")
		}
		loc := mdEscape(j.Location)
		if loc == "" {
			loc = "-"
		}
		title := mdEscape(j.Title)
		if u := strings.TrimSpace(j.URL); u != "" {
			title = fmt.Sprintf("[%s](%s)", title, u)
		}
		rows = append(rows, []string{posted, mdEscape(j.Company), title, loc, mdEscape(j.Source)})
	}
	return markdown.TableSet{
		Header: []string{"Posted", "Company", "Title", "Location", "Source"},
		Rows:   rows,
	}
}

// pageNav renders the "Page N/M | Prev | Next" line. Targets are
// relative to the README when fromReadme is set.
func pageNav(page, totalPages int, fromReadme bool) string {
	if totalPages <= 1 {
		return ""
	}
	prefix := ""
	if fromReadme {
		prefix = "exports/pages/"
	}
	parts := []string{fmt.Sprintf("Page %d/%d", page, totalPages)}
	if page > 1 {
		parts = append(parts, fmt.Sprintf("[Prev](%sjobs_page_%d.md)", prefix, page-1))
	}
	if page < totalPages {
		parts = append(parts, fmt.Sprintf("[Next](%sjobs_page_%d.md)", prefix, page+1))
	}
	return strings.Join(parts, " | ")
}

func mdEscape(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "|", `\|`))
}

func writeJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
