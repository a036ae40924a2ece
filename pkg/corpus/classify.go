package corpus

import (
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

var newsDomains = map[string]struct{}{
	"nytimes.com": {}, "washingtonpost.com": {}, "theguardian.com": {},
	"bbc.com": {}, "bbc.co.uk": {}, "cnn.com": {}, "reuters.com": {},
	"apnews.com": {}, "npr.org": {}, "foxnews.com": {}, "usatoday.com": {},
	"wsj.com": {}, "bloomberg.com": {}, "politico.com": {}, "axios.com": {},
	"cbsnews.com": {}, "nbcnews.com": {}, "abcnews.go.com": {}, "time.com": {},
	"latimes.com": {}, "aljazeera.com": {}, "economist.com": {},
}

var journalDomains = map[string]struct{}{
	"doi.org": {}, "jstor.org": {}, "nature.com": {}, "sciencedirect.com": {},
	"springer.com": {}, "link.springer.com": {}, "wiley.com": {},
	"onlinelibrary.wiley.com": {}, "tandfonline.com": {}, "sagepub.com": {},
	"ncbi.nlm.nih.gov": {}, "pubmed.ncbi.nlm.nih.gov": {}, "arxiv.org": {},
	"academic.oup.com": {}, "cambridge.org": {}, "pnas.org": {},
}

var bookDomains = map[string]struct{}{
	"books.google.com": {}, "archive.org": {}, "openlibrary.org": {},
	"worldcat.org": {},
}

// ClassifySourceType buckets an external reference by its domain:
// gov, edu, news, journal, book or web.
func ClassifySourceType(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "web"
	}
	host := strings.ToLower(strings.TrimPrefix(parsed.Host, "www."))

	if strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov.") {
		return "gov"
	}
	if strings.HasSuffix(host, ".edu") || strings.Contains(host, ".edu.") {
		return "edu"
	}
	if _, ok := journalDomains[host]; ok {
		return "journal"
	}
	if _, ok := bookDomains[host]; ok {
		return "book"
	}
	if _, ok := newsDomains[host]; ok {
		return "news"
	}
	// subdomains of known news outlets (edition.cnn.com etc)
	for domain := range newsDomains {
		if strings.HasSuffix(host, "."+domain) {
			return "news"
		}
	}
	return "web"
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectLang returns the ISO 639-1 code of the dominant language in text,
// or "und" when detection fails. Short texts default to English.
func DetectLang(text string) string {
	if CountTokens(text) < 10 {
		return "en"
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.Spanish, lingua.French, lingua.German,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
				lingua.Chinese, lingua.Japanese, lingua.Arabic,
			).
			Build()
	})

	language, ok := detector.DetectLanguageOf(truncateToRuneBoundary(text, 2000))
	if !ok {
		return "und"
	}
	return strings.ToLower(language.IsoCode639_1().String())
}

// truncateToRuneBoundary caps s at max bytes without splitting a rune.
func truncateToRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
