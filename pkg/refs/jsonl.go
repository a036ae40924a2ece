package refs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ultrawiki/refpipe/models"
)

// LoadJSONL reads a references.jsonl file, one record per line. Blank lines
// are skipped; a malformed line is an error with its line number.
func LoadJSONL(path string) ([]models.Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var items []models.Reference
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ref models.Reference
		if err := json.Unmarshal(line, &ref); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
		items = append(items, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return items, nil
}

// SaveJSONL writes records atomically: serialize to a temp file in the same
// directory, then rename over the destination. A crash mid-write never
// corrupts an existing references.jsonl.
func SaveJSONL(path string, items []models.Reference) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".references-*.jsonl.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
