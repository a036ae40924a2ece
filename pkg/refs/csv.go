package refs

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ultrawiki/refpipe/internal/common"
	"github.com/ultrawiki/refpipe/models"
)

// LoadTargetsCSV reads a title,url CSV into scrape targets. The first row is
// treated as a header when its second column is not a URL. Rows without a
// usable URL are skipped; a row with a URL but no title gets its title
// derived from the URL path.
func LoadTargetsCSV(path string) ([]models.ScrapeTarget, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var targets []models.ScrapeTarget
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		title := strings.TrimSpace(row[0])
		url := strings.TrimSpace(row[1])
		if i == 0 && !strings.HasPrefix(url, "http") {
			continue // header row
		}
		if !common.ValidateURL(url) {
			continue
		}
		if title == "" {
			if derived, err := common.ArticleTitleFromURL(url); err == nil {
				title = derived
			}
		}
		if title == "" {
			continue
		}
		targets = append(targets, models.ScrapeTarget{Title: title, URL: url})
	}
	return targets, nil
}

// SelectRange returns the 1-based inclusive row window [start..end] of
// targets. start <= 1 means from the first row, end <= 0 means through the
// last. An inverted or out-of-range window yields nil.
func SelectRange(targets []models.ScrapeTarget, start, end int) []models.ScrapeTarget {
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(targets) {
		end = len(targets)
	}
	if start > end {
		return nil
	}
	return targets[start-1 : end]
}
