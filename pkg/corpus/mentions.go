package corpus

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ultrawiki/refpipe/models"
)

var citationMarkerPattern = regexp.MustCompile(`\[\^?(\d+)\]`)

// citationMentions locates inline citation markers like [3] or [^3] in the
// body sentences and links them to reference IDs. Markers pointing past the
// reference list are ignored.
func citationMentions(docID string, sentences []string, refCount int) []models.RefMention {
	var mentions []models.RefMention
	for sentIdx, sentence := range sentences {
		for _, loc := range citationMarkerPattern.FindAllStringSubmatchIndex(sentence, -1) {
			n, err := strconv.Atoi(sentence[loc[2]:loc[3]])
			if err != nil || n < 1 || n > refCount {
				continue
			}
			mentions = append(mentions, models.RefMention{
				DocID:             docID,
				RefID:             fmt.Sprintf("%s_r%d", docID, n),
				SectionID:         0,
				SentIdx:           sentIdx,
				AnchorOffsetStart: loc[0],
				AnchorOffsetEnd:   loc[1],
			})
		}
	}
	return mentions
}
