package refs

import "strings"

// minContentLines is the smallest non-empty line count a fetched page can
// have before it is treated as an error page or a stub.
const minContentLines = 10

// knownErrorMarkers are phrases that appear in soft-404 pages which come
// back with HTTP 200 and otherwise look like content.
var knownErrorMarkers = []string{
	"404 | Fox News",
	"It seems you clicked on a bad link",
	"Something has gone wrong",
	"404 Not Found",
	"Page Not Found",
}

// QualityCheck inspects fetched page content. It returns ok=false and a
// reason when the page is a soft 404 or too short to be a real article.
func QualityCheck(content string) (ok bool, reason string) {
	for _, marker := range knownErrorMarkers {
		if strings.Contains(content, marker) {
			return false, "error page: " + marker
		}
	}

	lines := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	if lines < minContentLines {
		return false, "too short"
	}
	return true, ""
}
