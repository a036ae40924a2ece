// Package refs parses Wikipedia citation blocks into structured reference
// records and manages the references.jsonl file that addresses them by line.
package refs

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ultrawiki/refpipe/models"
)

var (
	mdLinkPattern        = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)]+)\)`)
	entryStartPattern    = regexp.MustCompile(`^\s*(\[[0-9]+\]|[0-9]+[.)]|[-*])\s+`)
	numberedRefPattern   = regexp.MustCompile(`(?i)^\s*\d+\.\s*[\^\*]*\s*(Jump up|\*)`)
	firstNumberedPattern = regexp.MustCompile(`(?i)^\s*1\.\s*[\^\*]*\s*(Jump up|[\*\^])`)
	headingPattern       = regexp.MustCompile(`^#{1,3} `)
	jumpPhrasePattern    = regexp.MustCompile(`(?i)^\s*\^?\s*Jump up to:?`)
	jumpCaretPattern     = regexp.MustCompile(`\*\*\[\^]\([^)]*\)\*\*`)
	jumpAnchorPattern    = regexp.MustCompile(`\[[^\]]+\]\(https?://[^)]+cite_ref[^)]*\)`)
	multiSpacePattern    = regexp.MustCompile(`\s+`)

	monthNames          = `(January|February|March|April|May|June|July|August|September|October|November|December)`
	publishDatePattern  = regexp.MustCompile(`\(` + monthNames + `\s+\d{1,2},\s+\d{4}\)`)
	retrievedPattern    = regexp.MustCompile(`(?i)Retrieved\s+` + monthNames + `\s+\d{1,2},\s+\d{4}\.?`)
	quotedTitlePattern  = regexp.MustCompile(`^".*"$|^“.*”$`)
	italicSourcePattern = regexp.MustCompile(`_(\s*[^_]{2,}?)_`)
	acronymPattern      = regexp.MustCompile(`^\s*([A-Z][A-Za-z&\.]*?(?:\s+[A-Z][A-Za-z&\.]*?){0,4})\.(?:\s|$)`)
)

type mdLink struct {
	Text string
	URL  string
}

// ParseReferencesBlock locates the References/Bibliography block in reader
// markdown and returns its raw lines. It handles plain "References" headings
// with a dashed underline, markdown "# References" headings, Bibliography
// sections, a "### Citations" anchor, numbered citation lists starting with
// "1. ^ Jump up to:", and untitled trailing link lists.
func ParseReferencesBlock(markdown string) []string {
	lines := strings.Split(markdown, "\n")
	n := len(lines)

	refStart := -1
	bibStart := -1
	citationsAnchor := -1
	numberedStart := -1

	for i, ln := range lines {
		stripped := strings.TrimSpace(ln)
		low := strings.ToLower(stripped)

		if low == "references" {
			refStart = i
		}
		if strings.HasPrefix(low, "#") && strings.Contains(low, "references") {
			refStart = i
		}
		if low == "bibliography" {
			bibStart = i
		}
		if strings.HasPrefix(low, "#") && strings.Contains(low, "bibliography") {
			bibStart = i
		}
		if strings.Contains(low, "### citations") {
			citationsAnchor = i
			if refStart == -1 {
				refStart = i
			}
		}
		if numberedStart == -1 && firstNumberedPattern.MatchString(stripped) {
			numberedStart = i
		}
	}

	var collected []string

	if refStart != -1 {
		start := refStart + 1
		if citationsAnchor != -1 {
			start = citationsAnchor + 1
		}
		end := n
		for _, candidate := range []int{bibStart, numberedStart} {
			if candidate > refStart && candidate < end {
				end = candidate
			}
		}
		collected = append(collected, collectSection(lines[start:end], true)...)
	}

	if bibStart != -1 {
		end := n
		if numberedStart > bibStart {
			end = numberedStart
		}
		collected = append(collected, collectSection(lines[bibStart+1:end], true)...)
	}

	if numberedStart != -1 {
		for _, ln := range lines[numberedStart:] {
			stripped := strings.TrimSpace(ln)
			switch {
			case numberedRefPattern.MatchString(stripped), stripped == "":
				collected = append(collected, ln)
			case headingPattern.MatchString(stripped), isSectionBreak(stripped):
				return collected
			default:
				// continuation of the previous entry
				collected = append(collected, ln)
			}
		}
	}

	if refStart == -1 && bibStart == -1 && numberedStart == -1 {
		collected = trailingLinkList(lines)
	}

	return collected
}

// collectSection gathers lines until the next unrelated heading or a section
// such as "External links" / "See also" begins.
func collectSection(lines []string, allowBibliography bool) []string {
	var out []string
	for _, ln := range lines {
		stripped := strings.TrimSpace(ln)
		if headingPattern.MatchString(stripped) {
			low := strings.ToLower(stripped)
			related := strings.Contains(low, "reference") || strings.Contains(low, "citation")
			if allowBibliography && strings.Contains(low, "bibliography") {
				related = true
			}
			if !related {
				break
			}
		}
		if isSectionBreak(stripped) {
			break
		}
		out = append(out, ln)
	}
	return out
}

func isSectionBreak(stripped string) bool {
	low := strings.ToLower(stripped)
	for _, prefix := range []string{"external links", "see also", "notes"} {
		if strings.HasPrefix(low, prefix) && !strings.Contains(low, "bibliography") {
			return true
		}
	}
	return false
}

// trailingLinkList scans the page bottom-up for an untitled citation list
// (bulleted markdown links at the end of the article).
func trailingLinkList(lines []string) []string {
	var out []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "*") && strings.Contains(line, "[") && strings.Contains(line, "]("):
			out = append([]string{lines[i]}, out...)
		case strings.Contains(strings.ToLower(line), "wikimedia") && strings.Contains(line, "["):
			out = append([]string{lines[i]}, out...)
		case strings.HasPrefix(line, "#") || strings.Contains(strings.ToLower(line), "edit section"):
			return out
		case !strings.HasPrefix(line, "*") && !strings.Contains(line, "[") && len(line) > 20:
			return out
		}
	}
	return out
}

// GroupEntries merges the block lines into one string per citation.
// Entries start at a numbered/bulleted line; blank lines flush the buffer.
func GroupEntries(lines []string) []string {
	var entries []string
	var buffer []string

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		merged := strings.Join(buffer, " ")
		merged = strings.TrimSpace(multiSpacePattern.ReplaceAllString(merged, " "))
		if merged != "" {
			entries = append(entries, merged)
		}
		buffer = buffer[:0]
	}

	for _, ln := range lines {
		stripped := strings.TrimSpace(ln)
		if stripped == "" {
			flush()
			continue
		}
		if entryStartPattern.MatchString(ln) {
			flush()
		}
		buffer = append(buffer, stripped)
	}
	flush()
	return entries
}

// BuildReferences parses grouped citation entries into structured records.
// Entries with no fetchable URL (book-only citations, pure in-page anchors)
// are dropped.
func BuildReferences(entries []string) []models.Reference {
	var items []models.Reference
	for _, raw := range entries {
		if ref, ok := buildReference(raw); ok {
			items = append(items, ref)
		}
	}
	return Dedupe(items)
}

func buildReference(raw string) (models.Reference, bool) {
	entry := strings.TrimSpace(raw)
	if entry == "" {
		return models.Reference{}, false
	}

	entry = entryStartPattern.ReplaceAllString(entry, "")
	entry = jumpPhrasePattern.ReplaceAllString(entry, "")
	entry = jumpCaretPattern.ReplaceAllString(entry, " ")
	entry = jumpAnchorPattern.ReplaceAllString(entry, " ")
	entry = strings.TrimSpace(multiSpacePattern.ReplaceAllString(entry, " "))

	links := contentLinks(entry)
	if len(links) == 0 {
		return models.Reference{}, false
	}

	publishDate := ""
	pubLoc := publishDatePattern.FindStringIndex(entry)
	if pubLoc != nil {
		publishDate = strings.Trim(entry[pubLoc[0]:pubLoc[1]], "()")
	}
	retrievedDate := retrievedPattern.FindString(entry)
	if retrievedDate != "" && !strings.HasSuffix(retrievedDate, ".") {
		retrievedDate += "."
	}

	author := authorSegment(entry, links, pubLoc)

	titleLink, ok := pickTitleLink(entry, links, pubLoc, author)
	if !ok {
		return models.Reference{}, false
	}

	archiveURL := ""
	for _, l := range links {
		if strings.EqualFold(l.Text, "archived") {
			archiveURL = l.URL
			break
		}
	}

	source := pickSource(entry, links, titleLink, author)

	// Pure in-page works-cited entries have no external link at all.
	if strings.Contains(titleLink.URL, "wikipedia.org") && !hasExternalLink(links) {
		return models.Reference{}, false
	}

	title := strings.TrimSpace(titleLink.Text)
	title = strings.Trim(title, `"“”`)
	title = strings.Trim(title, "_* ")
	title = multiSpacePattern.ReplaceAllString(title, " ")

	author = cleanName(author)
	source = cleanName(source)
	if author == "" && source != "" {
		author = source
	}
	if source == "" && author != "" {
		source = author
	}

	return models.Reference{
		Title:         title,
		URL:           titleLink.URL,
		IsExternal:    !strings.Contains(titleLink.URL, "wikipedia.org"),
		Author:        author,
		Source:        source,
		ArchiveURL:    archiveURL,
		PublishDate:   publishDate,
		RetrievedDate: retrievedDate,
	}, true
}

// contentLinks extracts markdown links, filtering footnote/jump anchors.
func contentLinks(entry string) []mdLink {
	var links []mdLink
	for _, m := range mdLinkPattern.FindAllStringSubmatch(entry, -1) {
		text, url := m[1], m[2]
		if isPureAnchor(text, url) {
			continue
		}
		links = append(links, mdLink{Text: text, URL: url})
	}
	return links
}

func isPureAnchor(text, url string) bool {
	t := strings.ToLower(strings.Trim(strings.TrimSpace(text), `_*"`))
	if url == "" {
		return true
	}
	if strings.Contains(url, "cite_ref") || strings.Contains(url, "cite_note") {
		return true
	}
	if len(t) == 1 && t >= "a" && t <= "z" {
		return true
	}
	if strings.Contains(t, "jump") || t == "^" {
		return true
	}
	return false
}

func hasExternalLink(links []mdLink) bool {
	for _, l := range links {
		if !strings.Contains(l.URL, "wikipedia.org") {
			return true
		}
	}
	return false
}

func linkPos(entry string, l mdLink) int {
	return strings.Index(entry, "["+l.Text+"](")
}

// authorSegment takes the text before the publish date, or before the first
// external link when no date is present.
func authorSegment(entry string, links []mdLink, pubLoc []int) string {
	var segment string
	if pubLoc != nil {
		segment = entry[:pubLoc[0]]
	} else {
		cut := -1
		for _, l := range links {
			if !strings.Contains(l.URL, "wikipedia.org") {
				if pos := linkPos(entry, l); pos != -1 {
					cut = pos
					break
				}
			}
		}
		if cut == -1 {
			if pos := linkPos(entry, links[0]); pos != -1 {
				cut = pos
			}
		}
		if cut == -1 {
			return ""
		}
		segment = entry[:cut]
	}

	segment = jumpCaretPattern.ReplaceAllString(segment, " ")
	segment = jumpAnchorPattern.ReplaceAllString(segment, " ")
	// unwrap any remaining links to their text
	segment = mdLinkPattern.ReplaceAllString(segment, "$1")
	segment = strings.TrimSpace(multiSpacePattern.ReplaceAllString(segment, " "))
	segment = strings.TrimSuffix(segment, ".")
	segment = strings.TrimSpace(segment)

	if len(strings.Fields(segment)) > 15 {
		return ""
	}
	return segment
}

// pickTitleLink selects the citation's content link: prefer a quote-wrapped
// external link after the publish date, then any external link after the
// date, then any link after the date, falling back to the first link outside
// the author segment.
func pickTitleLink(entry string, links []mdLink, pubLoc []int, author string) (mdLink, bool) {
	afterPos := 0
	if pubLoc != nil {
		afterPos = pubLoc[1]
	} else if author != "" {
		afterPos = len(author)
	}

	for _, l := range links {
		if pos := linkPos(entry, l); pos < afterPos {
			continue
		}
		if !strings.Contains(l.URL, "wikipedia.org") && quotedTitlePattern.MatchString(strings.TrimSpace(l.Text)) {
			return l, true
		}
	}
	for _, l := range links {
		if pos := linkPos(entry, l); pos < afterPos {
			continue
		}
		if !strings.Contains(l.URL, "wikipedia.org") {
			return l, true
		}
	}
	for _, l := range links {
		if pos := linkPos(entry, l); pos >= afterPos {
			return l, true
		}
	}
	for _, l := range links {
		pos := linkPos(entry, l)
		if author == "" || pos >= len(author) {
			return l, true
		}
	}
	return mdLink{}, false
}

// pickSource takes the first non-Archived link after the title, falling back
// to an italicized publication or a capitalized name in the trailing text.
func pickSource(entry string, links []mdLink, title mdLink, author string) string {
	titlePos := linkPos(entry, title)
	for _, l := range links {
		if l == title || strings.EqualFold(l.Text, "archived") {
			continue
		}
		if linkPos(entry, l) < titlePos {
			continue
		}
		if strings.TrimSpace(l.Text) == strings.TrimSpace(title.Text) {
			continue
		}
		return strings.Trim(l.Text, "_* ")
	}

	linkMarkdown := "[" + title.Text + "](" + title.URL + ")"
	end := strings.Index(entry, linkMarkdown)
	if end == -1 {
		return ""
	}
	tail := entry[end+len(linkMarkdown):]
	for _, kw := range []string{"Archived", "Retrieved"} {
		if pos := strings.Index(tail, kw); pos != -1 {
			tail = tail[:pos]
		}
	}

	if m := italicSourcePattern.FindStringSubmatch(tail); m != nil {
		candidate := strings.TrimSpace(m[1])
		if candidate != author {
			return strings.Trim(candidate, "_* ")
		}
	}
	if m := acronymPattern.FindStringSubmatch(tail); m != nil {
		candidate := strings.TrimSpace(m[1])
		low := strings.ToLower(candidate)
		if low != "retrieved" && low != "archived" && candidate != author {
			return strings.Trim(candidate, "_* ")
		}
	}
	return ""
}

func cleanName(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	s = strings.TrimLeft(s, "^*_ ")
	return strings.TrimSpace(s)
}

// Dedupe removes exactly duplicated records, preserving first-seen order.
func Dedupe(items []models.Reference) []models.Reference {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.Reference, 0, len(items))
	for _, it := range items {
		key := dedupeKey(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

func dedupeKey(r models.Reference) string {
	fields := []string{
		r.Title, r.URL, r.Author, r.Source,
		r.ArchiveURL, r.PublishDate, r.RetrievedDate,
	}
	sort.Strings(fields[2:]) // optional fields compare order-insensitively
	return strings.Join(fields, "\x00")
}

// ExtractFromMarkdown runs the full pipeline over reader markdown.
func ExtractFromMarkdown(markdown string) []models.Reference {
	lines := ParseReferencesBlock(markdown)
	entries := GroupEntries(lines)
	return BuildReferences(entries)
}
