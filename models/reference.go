// Package models defines data structures shared across the refpipe drivers.
package models

// Reference is one citation entry from an article's references.jsonl.
// Field order and omitempty behavior match the on-disk format: records carry
// only the fields that could be parsed out of the citation text.
type Reference struct {
	Title         string       `json:"title"`
	URL           string       `json:"url"`
	IsExternal    bool         `json:"is_external"`
	Author        string       `json:"author,omitempty"`
	Source        string       `json:"source,omitempty"`
	ArchiveURL    string       `json:"archive_url,omitempty"`
	PublishDate   string       `json:"publish_date,omitempty"`
	RetrievedDate string       `json:"retrieved_date,omitempty"`
	Scraped       bool         `json:"scraped"`
	FetcherUsed   string       `json:"fetcher_used,omitempty"`
	FilterReason  string       `json:"filter_reason,omitempty"`
	AttemptLog    []AttemptLog `json:"attempt_log,omitempty"`
}

// AttemptLog records one fetch attempt against one URL for a reference,
// written only when --record-attempts is set.
type AttemptLog struct {
	Round   int    `json:"round"`
	Step    string `json:"step"`
	Engine  string `json:"engine"`
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FetchedPage is the normalized result of fetching one URL through any
// fetcher backend (jina, goliath or direct HTTP).
type FetchedPage struct {
	URL         string
	Title       string
	Description string
	Content     string
	PublishTime string
}

// ScrapeTarget is one article to scrape: a Wikipedia URL plus its display
// title. Targets come from a single CLI argument or from CSV rows.
type ScrapeTarget struct {
	Title string
	URL   string
}
