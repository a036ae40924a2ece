// Package corpus converts scraped article directories into a release of
// JSONL tables: documents, passages, references, citation mentions and the
// fetched external reference pages.
package corpus

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	mdImagePattern     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkTextPattern  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeadingPattern   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdEmphasisPattern  = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	mdCodeFencePattern = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode       = regexp.MustCompile("`([^`]*)`")
	mdTableRulePattern = regexp.MustCompile(`(?m)^\|?[\s:|-]+\|[\s:|-]*$`)
	mdBulletPattern    = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumberedPattern  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern    = regexp.MustCompile(`[ \t]{2,}`)

	bodyEndPattern = regexp.MustCompile(`(?mi)^(#{1,6}\s*)?(References|Notes|Bibliography|Citations|External links|See also|Further reading)\s*$`)
)

// MarkdownToText strips markdown syntax, leaving plain prose. Links keep
// their text, images and code fences are dropped.
func MarkdownToText(markdown string) string {
	s := mdCodeFencePattern.ReplaceAllString(markdown, "")
	s = mdImagePattern.ReplaceAllString(s, "")
	s = mdLinkTextPattern.ReplaceAllString(s, "$1")
	s = mdHeadingPattern.ReplaceAllString(s, "")
	s = mdEmphasisPattern.ReplaceAllString(s, "$2")
	s = mdInlineCode.ReplaceAllString(s, "$1")
	s = mdTableRulePattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "|", " ")
	s = mdBulletPattern.ReplaceAllString(s, "")
	s = mdNumberedPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\[`, "[")
	s = strings.ReplaceAll(s, `\]`, "]")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// BodyText cuts the article at its first trailing section heading
// (References, Notes, Bibliography and the like): everything after belongs
// to the citation apparatus, not the body. A leading YAML front matter
// block is dropped first.
func BodyText(markdown string) string {
	markdown = stripFrontMatter(markdown)
	if loc := bodyEndPattern.FindStringIndex(markdown); loc != nil {
		markdown = markdown[:loc[0]]
	}
	return markdown
}

func stripFrontMatter(markdown string) string {
	if !strings.HasPrefix(markdown, "---\n") {
		return markdown
	}
	rest := markdown[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return markdown
	}
	rest = rest[end+len("\n---"):]
	return strings.TrimLeft(rest, "-\n")
}

// SplitSentences splits prose on sentence punctuation followed by
// whitespace and an uppercase letter or digit.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// consume the whitespace run after the terminator
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue
		}
		next := runes[j]
		if !unicode.IsUpper(next) && !unicode.IsDigit(next) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = j
		i = j - 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// CountTokens counts whitespace-separated tokens.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Chunk is a run of consecutive sentences capped at a word budget.
type Chunk struct {
	Text         string
	SentStartIdx int
	SentEndIdx   int // exclusive
}

// ChunkSentences packs sentences into chunks of at most maxWords words.
// A single sentence longer than the budget becomes its own chunk.
func ChunkSentences(sentences []string, maxWords int) []Chunk {
	if maxWords <= 0 {
		maxWords = 350
	}

	var chunks []Chunk
	var current []string
	words := 0
	start := 0

	flush := func(end int) {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:         strings.Join(current, " "),
			SentStartIdx: start,
			SentEndIdx:   end,
		})
		current = nil
		words = 0
	}

	for i, sentence := range sentences {
		n := CountTokens(sentence)
		if words > 0 && words+n > maxWords {
			flush(i)
			start = i
		}
		current = append(current, sentence)
		words += n
	}
	flush(len(sentences))
	return chunks
}
