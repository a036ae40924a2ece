package analytics

import "testing"

func TestWordFrequency(t *testing.T) {
	a := &Analytics{}
	freq := a.WordFrequency("The soil feeds the crop. Soil, retrieved from Wikipedia, is soil.")

	if freq["soil"] != 3 {
		t.Errorf("soil count = %d, want 3", freq["soil"])
	}
	if freq["crop"] != 1 {
		t.Errorf("crop count = %d, want 1", freq["crop"])
	}
	// stopwords and citation boilerplate never show up
	for _, w := range []string{"the", "retrieved", "wikipedia", "is", "from"} {
		if _, ok := freq[w]; ok {
			t.Errorf("%q should be filtered", w)
		}
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("The") {
		t.Error("The should be a stopword regardless of case")
	}
	if !IsStopword("archived") {
		t.Error("archived is citation boilerplate")
	}
	if IsStopword("harvest") {
		t.Error("harvest is a content word")
	}
}

func TestTopNWords(t *testing.T) {
	a := &Analytics{}
	text := "wheat wheat wheat barley barley rye"
	top := a.TopNWords(text, 2)
	if len(top) != 2 {
		t.Fatalf("got %d words, want 2", len(top))
	}
	if top[0] != "wheat" {
		t.Errorf("top word = %q, want wheat", top[0])
	}

	// n larger than vocabulary is clamped
	if got := a.TopNWords(text, 10); len(got) != 3 {
		t.Errorf("got %d words, want 3", len(got))
	}
}
