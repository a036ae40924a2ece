// Package storage lays out the on-disk scrape workspace: one directory per
// article holding its references.jsonl and the fetched reference pages.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ultrawiki/refpipe/internal/common"
)

const (
	ReferencesFile = "references.jsonl"
	refSubdir      = "reference"
	refPagesSubdir = "reference_pages"
	maxSlugLength  = 120
)

// Store resolves paths under a scrape output directory. Layout per article:
//
//	<base>/<title>/<title>.md
//	<base>/<title>/reference/references.jsonl
//	<base>/<title>/reference/reference_pages/<slug>.md
type Store struct {
	BaseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// ArticleDir returns the directory for one article's scrape output. The
// title is used as-is (spaces included) apart from path separators.
func (s *Store) ArticleDir(title string) string {
	return filepath.Join(s.BaseDir, safeName(title))
}

// EnsureArticleDir creates the article directory tree and returns its path.
func (s *Store) EnsureArticleDir(title string) (string, error) {
	dir := s.ArticleDir(title)
	if err := os.MkdirAll(filepath.Join(dir, refSubdir, refPagesSubdir), 0755); err != nil {
		return "", fmt.Errorf("failed to create article directory %s: %w", dir, err)
	}
	return dir, nil
}

// ReferencesPath returns the references.jsonl path inside an article dir.
func (s *Store) ReferencesPath(articleDir string) string {
	return filepath.Join(articleDir, refSubdir, ReferencesFile)
}

// ArticlePagePath returns the markdown path for the article page itself.
func (s *Store) ArticlePagePath(articleDir, title string) string {
	return filepath.Join(articleDir, safeName(title)+".md")
}

// RefPagePath returns the markdown path for a fetched reference page.
// Untitled references fall back to an index-based name.
func (s *Store) RefPagePath(articleDir, refTitle string, index int) string {
	name := common.Slugify(refTitle, maxSlugLength)
	if name == "page" && refTitle == "" {
		name = fmt.Sprintf("ref_%d", index)
	}
	return filepath.Join(articleDir, refSubdir, refPagesSubdir, name+".md")
}

func safeName(title string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '-'
		}
		return r
	}, title)
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

func (s *Store) SaveFile(filePath string, content []byte) error {
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %s", err)
	}
	return nil
}

func (s *Store) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %s", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

func (s *Store) HasFile(fn string) bool {
	return fileExists(fn)
}

// GetFileStats returns metadata about a file using os.Stat.
func (s *Store) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %s", err)
	}
	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}
