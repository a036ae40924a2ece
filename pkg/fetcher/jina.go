package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ultrawiki/refpipe/models"
)

const jinaReaderBase = "https://r.jina.ai/"

// Jina fetches pages through the r.jina.ai reader, which renders a URL and
// returns its content as markdown.
type Jina struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewJina builds a reader client. The API key may be empty; unauthenticated
// requests work at a lower rate limit.
func NewJina(apiKey string) *Jina {
	return &Jina{apiKey: apiKey, baseURL: jinaReaderBase, client: newHTTPClient(defaultTimeout)}
}

func (j *Jina) Name() string { return "jina" }

type jinaResponse struct {
	Code   int    `json:"code"`
	Status int    `json:"status"`
	Data   struct {
		URL           string `json:"url"`
		Title         string `json:"title"`
		Description   string `json:"description"`
		Content       string `json:"content"`
		PublishedTime string `json:"publishedTime"`
	} `json:"data"`
}

func (j *Jina) Fetch(ctx context.Context, url string) (*models.FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reader request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Timeout", "60000")
	req.Header.Set("X-With-Generated-Alt", "true")
	if j.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.apiKey)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reader request failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read reader response for %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reader returned HTTP %d for %s: %s", resp.StatusCode, url, snippet(body))
	}

	var parsed jinaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode reader response for %s: %w", url, err)
	}
	if strings.TrimSpace(parsed.Data.Content) == "" {
		return nil, fmt.Errorf("reader returned empty content for %s", url)
	}

	return &models.FetchedPage{
		URL:         firstNonEmpty(parsed.Data.URL, url),
		Title:       parsed.Data.Title,
		Description: parsed.Data.Description,
		Content:     parsed.Data.Content,
		PublishTime: parsed.Data.PublishedTime,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
