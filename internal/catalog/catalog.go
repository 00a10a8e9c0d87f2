// Package catalog manages the durable text-file inputs and outputs of
// the pipeline: the master company list, per-source validated token
// lists, and the career-URL mappings used by the scraping connector.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"jobradar/internal/config"
)

// InvalidToken records why one token failed validation.
type InvalidToken struct {
	Token  string
	Reason string
}

// Catalog reads and writes the list files under the data directory.
type Catalog struct {
	dataDir    string
	masterFile string
	extraFiles []string
	extraDir   string
	logger     *zap.Logger
}

// New builds a Catalog from config.
func New(cfg config.CatalogConfig, logger *zap.Logger) *Catalog {
	return &Catalog{
		dataDir:    cfg.DataDir,
		masterFile: cfg.MasterFile,
		extraFiles: cfg.ExtraFiles,
		extraDir:   cfg.ExtraDir,
		logger:     logger,
	}
}

func (c *Catalog) validatedDir() string {
	return filepath.Join(c.dataDir, "validated")
}

func (c *Catalog) validPath(source string) string {
	return filepath.Join(c.validatedDir(), source+"_valid.txt")
}

func (c *Catalog) invalidPath(source string) string {
	return filepath.Join(c.validatedDir(), source+"_invalid.txt")
}

// MappingsPath is the career-URL mapping file consumed by the scraping
// connector.
func (c *Catalog) MappingsPath() string {
	return filepath.Join(c.validatedDir(), "career_url_mappings.txt")
}

// MasterCompanies loads the combined, deduplicated company list. The
// master file must exist; extra files are optional.
func (c *Catalog) MasterCompanies() ([]string, error) {
	if _, err := os.Stat(c.masterFile); err != nil {
		return nil, fmt.Errorf("master company list not found at %s: %w", c.masterFile, err)
	}

	files := []string{c.masterFile}
	files = append(files, c.extraFiles...)
	if c.extraDir != "" {
		extras, err := filepath.Glob(filepath.Join(c.extraDir, "*.txt"))
		if err == nil {
			sort.Strings(extras)
			files = append(files, extras...)
		}
	}

	var items []string
	seenFiles := make(map[string]struct{})
	for _, file := range files {
		if file == "" {
			continue
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		if _, dup := seenFiles[abs]; dup {
			continue
		}
		seenFiles[abs] = struct{}{}

		lines, err := readListLines(file)
		if err != nil {
			if !os.IsNotExist(err) && c.logger != nil {
				c.logger.Warn("skipping unreadable company list", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		items = append(items, lines...)
	}

	return dedupeOrdered(items), nil
}

// ValidTokens loads the validated token list for one source, returning
// nil when no validation has run yet.
func (c *Catalog) ValidTokens(source string) []string {
	lines, err := readListLines(c.validPath(source))
	if err != nil {
		return nil
	}
	return lines
}

// SaveValidTokens writes the validated list for one source, one token
// per line.
func (c *Catalog) SaveValidTokens(source string, tokens []string) error {
	return writeLines(c.validPath(source), tokens)
}

// SaveInvalidTokens writes the rejects with their reasons, tab
// separated so the file stays greppable.
func (c *Catalog) SaveInvalidTokens(source string, rejects []InvalidToken) error {
	lines := make([]string, 0, len(rejects))
	for _, r := range rejects {
		lines = append(lines, r.Token+"\t"+r.Reason)
	}
	return writeLines(c.invalidPath(source), lines)
}

// CareerURLMappings parses "company | url" lines into a map.
func (c *Catalog) CareerURLMappings() map[string]string {
	data, err := os.ReadFile(c.MappingsPath())
	if err != nil {
		return map[string]string{}
	}
	out := make(map[string]string)
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		company, url, found := strings.Cut(line, "|")
		if !found {
			continue
		}
		company = strings.TrimSpace(company)
		url = strings.TrimSpace(url)
		if company == "" || url == "" {
			continue
		}
		out[company] = url
	}
	return out
}

// Mapping pairs a company with its discovered career page.
type Mapping struct {
	Company string
	URL     string
}

// SaveCareerURLMappings writes the "company | url" mapping file.
func (c *Catalog) SaveCareerURLMappings(mappings []Mapping) error {
	lines := make([]string, 0, len(mappings)+1)
	lines = append(lines, "# company | career page url")
	for _, m := range mappings {
		lines = append(lines, m.Company+" | "+m.URL)
	}
	return writeLines(c.MappingsPath(), lines)
}

// WebScrapeSources returns the validated scrape companies that have a
// career-URL mapping, in list order, together with the mappings.
func (c *Catalog) WebScrapeSources() ([]string, map[string]string) {
	mappings := c.CareerURLMappings()
	var companies []string
	for _, company := range c.ValidTokens("webscrape") {
		if _, ok := mappings[company]; ok {
			companies = append(companies, company)
		}
	}
	return companies, mappings
}

// readListLines reads a list file, dropping blanks, comment lines and
// inline comments ("#" or "//").
func readListLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		line, _, _ = strings.Cut(line, "#")
		line, _, _ = strings.Cut(line, "//")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func dedupeOrdered(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
