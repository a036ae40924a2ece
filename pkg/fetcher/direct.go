package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"

	"github.com/ultrawiki/refpipe/models"
)

const directUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// Direct fetches the raw page over HTTP, extracts the readable article and
// converts it to markdown. Used for plain pages and as the offline-friendly
// backend in tests.
type Direct struct {
	client *http.Client
}

func NewDirect() *Direct {
	return &Direct{client: newHTTPClient(defaultTimeout)}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Fetch(ctx context.Context, rawURL string) (*models.FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", directUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read body for %s: %w", rawURL, err)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %s: %w", rawURL, err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed for %s: %w", rawURL, err)
	}

	markdown, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("markdown conversion failed for %s: %w", rawURL, err)
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, fmt.Errorf("no readable content in %s", rawURL)
	}

	return &models.FetchedPage{
		URL:         rawURL,
		Title:       article.Title,
		Description: article.Excerpt,
		Content:     markdown,
	}, nil
}
