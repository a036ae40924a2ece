package models

import (
	"strconv"
	"strings"
)

// ScrapeConfig holds runtime configuration for scrape operations.
// All values come from CLI flags, not external config files.
type ScrapeConfig struct {
	OutputDir      string
	APIKey         string
	Fetcher        string
	Start          int
	End            int
	RefStart       int
	RefEnd         int
	All            bool
	Force          bool
	SkipExists     bool
	RecordAttempts bool
}

// RagConfig is the environment-driven configuration for the RAG experiment
// driver. Values come from the process environment, optionally preloaded
// from a .env file.
type RagConfig struct {
	Class         string
	OSSHost       string
	OSSPorts      []string
	EmbedHost     string
	EmbedPorts    []string
	LLMMaxAsync   int
	EmbedMaxAsync int
	BaseDir       string
}

// Env renders the config back into KEY=VALUE pairs for stage subprocesses.
func (c *RagConfig) Env() []string {
	return []string{
		"CLASS=" + c.Class,
		"OSS_HOST=" + c.OSSHost,
		"OSS_PORTS=" + strings.Join(c.OSSPorts, ","),
		"EMBED_HOST=" + c.EmbedHost,
		"EMBED_PORTS=" + strings.Join(c.EmbedPorts, ","),
		"LLM_MAX_ASYNC=" + strconv.Itoa(c.LLMMaxAsync),
		"EMBED_MAX_ASYNC=" + strconv.Itoa(c.EmbedMaxAsync),
	}
}
