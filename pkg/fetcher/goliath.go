package fetcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ultrawiki/refpipe/models"
)

// Goliath fetches pages through the internal goliath retrieval service,
// which returns rendered markdown as a base64 payload.
type Goliath struct {
	endpoint string
	token    string
	bizDef   string
	retries  int
	backoff  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewGoliath builds a goliath client. retries counts extra attempts after
// the first, each separated by a fixed backoff.
func NewGoliath(endpoint, token, bizDef string, logger *slog.Logger) *Goliath {
	return &Goliath{
		endpoint: endpoint,
		token:    token,
		bizDef:   bizDef,
		retries:  2,
		backoff:  5 * time.Second,
		client:   newHTTPClient(defaultTimeout),
		logger:   logger,
	}
}

func (g *Goliath) Name() string { return "goliath" }

type goliathRequest struct {
	BizDef       string `json:"biz_def"`
	URL          string `json:"url"`
	TimeoutMs    int    `json:"timeout_ms"`
	RetrieveType string `json:"retrieve_type"`
	Model        string `json:"model"`
}

type goliathResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func (g *Goliath) Fetch(ctx context.Context, url string) (*models.FetchedPage, error) {
	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying goliath fetch",
				"url", url, "attempt", attempt+1, "error", lastErr.Error())
			select {
			case <-time.After(g.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		page, err := g.fetchOnce(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("goliath fetch failed after %d attempts: %w", g.retries+1, lastErr)
}

func (g *Goliath) fetchOnce(ctx context.Context, url string) (*models.FetchedPage, error) {
	payload, err := json.Marshal(goliathRequest{
		BizDef:       g.bizDef,
		URL:          url,
		TimeoutMs:    60000,
		RetrieveType: "MARKDOWN_RICH",
		Model:        "yuanshi/goliath/retrieve",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal goliath request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build goliath request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("rock-request-id", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("goliath request failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read goliath response for %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("goliath returned HTTP %d for %s: %s", resp.StatusCode, url, snippet(body))
	}

	var parsed goliathResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode goliath response for %s: %w", url, err)
	}
	if parsed.Result == "" {
		return nil, fmt.Errorf("goliath returned empty result for %s (code %d: %s)",
			url, parsed.Code, parsed.Message)
	}

	decoded, err := base64.StdEncoding.DecodeString(parsed.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode goliath payload for %s: %w", url, err)
	}
	content := string(decoded)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("goliath returned empty content for %s", url)
	}

	return &models.FetchedPage{
		URL:     url,
		Title:   firstMarkdownHeading(content),
		Content: content,
	}, nil
}

// firstMarkdownHeading pulls a display title out of the rendered markdown.
func firstMarkdownHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
