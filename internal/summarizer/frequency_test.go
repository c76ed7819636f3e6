package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_KeepsDocumentOrder(t *testing.T) {
	s := New()
	text := "Cats are wonderful animals. The weather report mentioned rain. " +
		"Cats sleep most of the day. Cats purr when they are happy."

	got := s.Summarize(text, 2)
	assert.Equal(t, 2, strings.Count(got, "."))
	// Frequent-topic sentences win over the off-topic one.
	assert.NotContains(t, got, "weather report")
	// Selected sentences keep their document order.
	a := strings.Index(got, "Cats are wonderful")
	b := strings.Index(got, "Cats sleep")
	c := strings.Index(got, "Cats purr")
	for _, pair := range [][2]int{{a, b}, {a, c}, {b, c}} {
		if pair[0] >= 0 && pair[1] >= 0 {
			assert.Less(t, pair[0], pair[1])
		}
	}
}

func TestSummarize_ShortInputReturnedWhole(t *testing.T) {
	s := New()
	assert.Equal(t, "One sentence only.", s.Summarize("One sentence only.", 3))
	assert.Equal(t, "no terminal punctuation", s.Summarize("no terminal punctuation", 3))
	assert.Equal(t, "", s.Summarize("   ", 3))
}

func TestSummarize_MaxSentencesCap(t *testing.T) {
	s := New()
	text := "Alpha reads books. Alpha writes books. Alpha sells books. Alpha lends books."
	got := s.Summarize(text, 2)
	assert.Equal(t, 2, strings.Count(got, "."))
}

func TestSummarize_AllStopwords(t *testing.T) {
	s := New()
	// No scorable tokens at all; must not panic and must return something.
	got := s.Summarize("The and of it. By the for so.", 1)
	assert.NotEmpty(t, got)
}
