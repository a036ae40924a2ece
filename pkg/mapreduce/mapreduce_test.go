package mapreduce

import (
	"reflect"
	"testing"

	"github.com/ultrawiki/refpipe/pkg/analytics"
)

func TestMapReduce(t *testing.T) {
	a := &analytics.Analytics{}
	texts := []string{
		"Crop rotation improves soil health.",
		"Soil health depends on crop diversity.",
	}

	reduced := Reduce(MapAll(texts, a))
	if reduced["soil"] != 2 {
		t.Errorf("soil count = %d, want 2", reduced["soil"])
	}
	if reduced["crop"] != 2 {
		t.Errorf("crop count = %d, want 2", reduced["crop"])
	}
	if _, ok := reduced["on"]; ok {
		t.Error("stopword 'on' should be filtered")
	}
}

func TestMapAllMatchesSequentialMap(t *testing.T) {
	a := &analytics.Analytics{}
	texts := []string{"wheat barley oats", "barley rye", ""}

	parallel := MapAll(texts, a)
	for i, text := range texts {
		if got := Map(text, a); !reflect.DeepEqual(parallel[i], got) {
			t.Errorf("MapAll()[%d] = %v, want %v", i, parallel[i], got)
		}
	}
}

func TestTopKeywords(t *testing.T) {
	counts := map[string]int{
		"agriculture": 10,
		"irrigation":  7,
		"harvest":     7,
		"bad(":        99,
		"trailing:":   42,
	}

	got := TopKeywords(counts, 2)
	want := []string{"agriculture:10", "harvest:7"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopKeywords() = %v, want %v", got, want)
	}
}
