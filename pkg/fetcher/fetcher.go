// Package fetcher retrieves web pages as markdown through one of three
// backends: the Jina reader API, the goliath retrieval service, or a direct
// HTTP fetch cleaned up with readability.
package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/ultrawiki/refpipe/models"
)

// Fetcher turns a URL into normalized page content.
type Fetcher interface {
	// Name identifies the backend in logs and fetcher_used fields.
	Name() string
	Fetch(ctx context.Context, url string) (*models.FetchedPage, error)
}

const defaultTimeout = 90 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}
