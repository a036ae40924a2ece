package common

import "testing"

func TestArticleTitleFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "underscores become spaces",
			url:  "https://en.wikipedia.org/wiki/Joe_Biden",
			want: "Joe Biden",
		},
		{
			name: "single segment",
			url:  "https://en.wikipedia.org/wiki/Agriculture",
			want: "Agriculture",
		},
		{
			name: "percent-encoded segment",
			url:  "https://en.wikipedia.org/wiki/Tell_es-Sakan",
			want: "Tell es-Sakan",
		},
		{
			name: "trailing slash",
			url:  "https://en.wikipedia.org/wiki/Joe_Biden/",
			want: "Joe Biden",
		},
		{
			name:    "no path",
			url:     "https://en.wikipedia.org",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArticleTitleFromURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ArticleTitleFromURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ArticleTitleFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "plain title", in: "Joe Biden", max: 80, want: "Joe Biden"},
		{name: "punctuation stripped", in: `"Promises to Keep: On Life"`, max: 80, want: "Promises to Keep On Life"},
		{name: "underscores to spaces", in: "some_file_name", max: 80, want: "some file name"},
		{name: "collapsed whitespace", in: "a   b\tc", max: 80, want: "a b c"},
		{name: "empty falls back", in: "???", max: 80, want: "page"},
		{name: "truncated", in: "abcdefghij", max: 4, want: "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in, tt.max); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Biden's Promise", "bidens promise"},
		{"A  Title -- With:Punct!", "a title with punct"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/a#frag", "https://example.com/a"},
		{"https://example.com/a?utm_source=x&b=1", "https://example.com/a?b=1"},
		{"https://example.com/a?b=1&utm_campaign=y", "https://example.com/a?b=1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormURL(tt.in); got != tt.want {
			t.Errorf("NormURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" https://example.com, ", "https://example.com"},
		{"[link](https://example.com/page)", "https://example.com/page"},
		{"(https://example.com)", "https://example.com"},
	}

	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
