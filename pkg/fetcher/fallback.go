package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ultrawiki/refpipe/models"
)

// Chain runs the fetch fallback policy for one reference. Archived copies
// are tried first through the archive backend, then the live URL through the
// primary backend, then the live URL through the fallback backend.
type Chain struct {
	Primary  Fetcher
	Fallback Fetcher
	Logger   *slog.Logger
}

// NewChain wires a chain with goliath as the fallback/archive backend.
func NewChain(primary Fetcher, fallback Fetcher, logger *slog.Logger) *Chain {
	return &Chain{Primary: primary, Fallback: fallback, Logger: logger}
}

type step struct {
	engine Fetcher
	label  string
	url    string
}

// Steps returns the attempt plan for a reference in order. Duplicate
// engine/URL pairs collapse into the first occurrence.
func (c *Chain) Steps(ref *models.Reference) []step {
	var plan []step
	if ref.ArchiveURL != "" {
		plan = append(plan, step{engine: c.Fallback, label: "archive", url: ref.ArchiveURL})
	}
	plan = append(plan,
		step{engine: c.Primary, label: "primary", url: ref.URL},
		step{engine: c.Fallback, label: "fallback", url: ref.URL},
	)

	seen := make(map[string]struct{}, len(plan))
	out := plan[:0]
	for _, s := range plan {
		key := s.engine.Name() + "\x00" + s.url
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// FetchReference walks the attempt plan until one backend succeeds. It
// returns the page, the name of the engine that produced it, and the attempt
// log for the round.
func (c *Chain) FetchReference(ctx context.Context, ref *models.Reference, round int) (*models.FetchedPage, string, []models.AttemptLog, error) {
	var attempts []models.AttemptLog
	var errs []error

	for _, s := range c.Steps(ref) {
		page, err := s.engine.Fetch(ctx, s.url)
		entry := models.AttemptLog{
			Round:   round,
			Step:    s.label,
			Engine:  s.engine.Name(),
			URL:     s.url,
			Success: err == nil,
		}
		if err != nil {
			entry.Error = err.Error()
			attempts = append(attempts, entry)
			errs = append(errs, err)
			c.Logger.Warn("fetch attempt failed",
				"step", s.label, "engine", s.engine.Name(), "url", s.url, "error", err.Error())
			if ctx.Err() != nil {
				return nil, "", attempts, ctx.Err()
			}
			continue
		}
		attempts = append(attempts, entry)
		return page, s.engine.Name(), attempts, nil
	}

	return nil, "", attempts, fmt.Errorf("all fetch attempts failed for %s: %w", ref.URL, errors.Join(errs...))
}
