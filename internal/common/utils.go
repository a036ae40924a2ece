package common

import (
	"crypto/sha1"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ContentHash computes a SHA1 hash of content and returns the hex string.
func ContentHash(data []byte) string {
	hash := sha1.Sum(data)
	return fmt.Sprintf("%x", hash)
}

// ArticleTitleFromURL derives the article title from the final path segment
// of a wiki URL, with underscores replaced by spaces.
// "https://en.wikipedia.org/wiki/Joe_Biden" -> "Joe Biden".
func ArticleTitleFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	segment := strings.TrimSuffix(parsed.Path, "/")
	if idx := strings.LastIndex(segment, "/"); idx != -1 {
		segment = segment[idx+1:]
	}
	if segment == "" {
		return "", fmt.Errorf("URL has no path segment: %s", rawURL)
	}

	decoded, err := url.PathUnescape(segment)
	if err != nil {
		decoded = segment
	}

	title := strings.TrimSpace(strings.ReplaceAll(decoded, "_", " "))
	if title == "" {
		return "", fmt.Errorf("URL path segment is empty after cleanup: %s", rawURL)
	}
	return title, nil
}

var (
	slugInvalidChars = regexp.MustCompile(`[^A-Za-z0-9\- ]+`)
	slugMultiSpace   = regexp.MustCompile(` {2,}`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
)

// Slugify converts text into a filesystem-safe name, preserving case.
// Whitespace is collapsed, underscores become spaces, and only
// letters/digits/spaces/hyphens are kept.
func Slugify(text string, maxLength int) string {
	s := strings.TrimSpace(text)
	s = slugWhitespace.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugMultiSpace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -")
	if s == "" {
		s = "page"
	}
	if maxLength > 0 && len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}
	return s
}

// NormalizeTitle lowercases a title and strips punctuation for filename
// matching between reference records and fetched page files.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	var b strings.Builder
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste
// issues: whitespace, trailing punctuation, markdown link wrappers.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Extract URL from markdown link format: [text](url) -> url
	markdownLinkPattern := regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

var urlPattern = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](/[^\s]*)?$`)

// ValidateURL reports whether a URL looks fetchable after sanitization.
func ValidateURL(rawURL string) bool {
	cleaned := SanitizeURL(rawURL)
	if cleaned == "" || strings.Contains(cleaned, " ") {
		return false
	}
	if !urlPattern.MatchString(cleaned) {
		return false
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return false
	}
	return true
}

var utmPattern = regexp.MustCompile(`([?&])utm_[^=]+=[^&]*&?`)

// NormURL strips fragments and utm_* tracking parameters for corpus keys.
func NormURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	s := rawURL
	if idx := strings.Index(s, "#"); idx != -1 {
		s = s[:idx]
	}
	for {
		next := utmPattern.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimRight(s, "?&")
}
