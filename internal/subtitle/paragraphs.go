package subtitle

import (
	"strings"
)

const sentencesPerParagraph = 4

// splitParagraphs groups text into paragraphs of n sentences. A sentence ends
// at a word ending in '.', '!' or '?'.
func splitParagraphs(text string, n int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var paragraphs []string
	var current []string
	sentences := 0
	for _, w := range words {
		current = append(current, w)
		if strings.ContainsAny(w[len(w)-1:], ".!?") {
			sentences++
			if sentences == n {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = nil
				sentences = 0
			}
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return paragraphs
}
