// Package mapreduce aggregates word frequencies across corpus passages.
package mapreduce

import (
	"runtime"
	"sync"

	"github.com/ultrawiki/refpipe/pkg/analytics"
)

// Map generates a word frequency map for a single passage's text.
func Map(text string, a *analytics.Analytics) map[string]int {
	return a.WordFrequency(text)
}

// MapAll fans passages out to a worker pool and returns one frequency map
// per passage.
func MapAll(texts []string, a *analytics.Analytics) []map[string]int {
	workers := runtime.NumCPU()
	if workers > len(texts) {
		workers = len(texts)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]map[string]int, len(texts))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = Map(texts[i], a)
			}
		}()
	}
	for i := range texts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}
