package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/analytics"
	"github.com/ultrawiki/refpipe/pkg/mapreduce"
)

// Stats summarizes a built corpus release.
type Stats struct {
	Docs        int            `yaml:"docs"`
	Passages    int            `yaml:"passages"`
	Refs        int            `yaml:"references"`
	RefsScraped int            `yaml:"references_scraped"`
	Mentions    int            `yaml:"ref_mentions"`
	ExtDocs     int            `yaml:"ext_docs"`
	ExtFulltext int            `yaml:"ext_docs_fulltext"`
	ExtPassages int            `yaml:"ext_passages"`
	Links       int            `yaml:"ref2ext_links"`
	TotalTokens int            `yaml:"total_tokens"`
	SourceTypes map[string]int `yaml:"source_types"`
	Languages   map[string]int `yaml:"languages"`
	TopKeywords []string       `yaml:"top_keywords,omitempty"`
}

// ComputeStats reads the corpus tables under corpusDir and aggregates them.
func ComputeStats(corpusDir string, topN int) (*Stats, error) {
	docs, err := readTable[models.CorpusDoc](filepath.Join(corpusDir, "docs.jsonl"))
	if err != nil {
		return nil, err
	}
	passages, err := readTable[models.CorpusPassage](filepath.Join(corpusDir, "passages.jsonl"))
	if err != nil {
		return nil, err
	}
	refs, err := readTable[models.CorpusReference](filepath.Join(corpusDir, "references.jsonl"))
	if err != nil {
		return nil, err
	}
	mentions, err := readTable[models.RefMention](filepath.Join(corpusDir, "ref_mentions.jsonl"))
	if err != nil {
		return nil, err
	}
	extDocs, err := readTable[models.ExtDoc](filepath.Join(corpusDir, "ext_docs.jsonl"))
	if err != nil {
		return nil, err
	}
	extPassages, err := readTable[models.ExtPassage](filepath.Join(corpusDir, "ext_passages.jsonl"))
	if err != nil {
		return nil, err
	}
	links, err := readTable[models.RefToExt](filepath.Join(corpusDir, "ref2ext.jsonl"))
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Docs:        len(docs),
		Passages:    len(passages),
		Refs:        len(refs),
		Mentions:    len(mentions),
		ExtDocs:     len(extDocs),
		ExtPassages: len(extPassages),
		Links:       len(links),
		SourceTypes: make(map[string]int),
		Languages:   make(map[string]int),
	}

	for _, d := range docs {
		stats.TotalTokens += d.NTokens
	}
	for _, r := range refs {
		if r.Scraped {
			stats.RefsScraped++
		}
	}
	for _, e := range extDocs {
		stats.SourceTypes[e.SourceType]++
		stats.Languages[e.Lang]++
		if e.HasFulltext {
			stats.ExtFulltext++
		}
	}

	if topN > 0 && len(passages) > 0 {
		texts := make([]string, len(passages))
		for i, p := range passages {
			texts[i] = p.Text
		}
		counts := mapreduce.Reduce(mapreduce.MapAll(texts, &analytics.Analytics{}))
		stats.TopKeywords = mapreduce.TopKeywords(counts, topN)
	}

	return stats, nil
}

// readTable reads one JSONL table into a slice. A missing file is an error:
// a corpus release always carries all seven tables, even when empty.
func readTable[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}
