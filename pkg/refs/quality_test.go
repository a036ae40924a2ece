package refs

import (
	"strings"
	"testing"
)

func TestQualityCheck(t *testing.T) {
	goodPage := strings.Repeat("A real line of article content here.\n", 12)

	tests := []struct {
		name    string
		content string
		wantOK  bool
	}{
		{name: "real page", content: goodPage, wantOK: true},
		{name: "fox 404", content: goodPage + "404 | Fox News\n", wantOK: false},
		{name: "bad link page", content: "It seems you clicked on a bad link.\n" + goodPage, wantOK: false},
		{name: "generic 404", content: goodPage + "404 Not Found", wantOK: false},
		{name: "too short", content: "one line\n\ntwo lines\n", wantOK: false},
		{name: "blank lines do not count", content: strings.Repeat("line\n\n\n", 5), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := QualityCheck(tt.content)
			if ok != tt.wantOK {
				t.Errorf("QualityCheck() ok = %v (reason %q), want %v", ok, reason, tt.wantOK)
			}
			if !ok && reason == "" {
				t.Error("failed check must carry a reason")
			}
		})
	}
}
