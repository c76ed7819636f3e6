package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// Missing is the sentinel returned when no signer or date could be found.
const Missing = "Metadata is missing"

// DefaultTailLines is how many lines from the bottom of a page are searched.
// Signatures and dates live near the bottom of clinical and legal documents,
// so earlier content is ignored even when it matches.
const DefaultTailLines = 20

var (
	// Numeric dates (M/D/YYYY, M-D-YY) or a month name followed by day and year.
	datePattern = regexp.MustCompile(
		`(?i)(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2},?\s+\d{2,4})\b`)

	// Capitalized words following a signer cue keyword, with an optional
	// trailing credential.
	namePattern = regexp.MustCompile(
		`(?i)(?:Signed by|Electronically Signed by|Physician|Provider|Doctor|DR\.?|MD|NP|DO)\s*:?\s*([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+){0,3}(?:,\s*(?:MD|DO|NP|PA|RN))?)`)

	// Bare capitalized-word sequences, used only when the cue pattern fails.
	simpleNamePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
)

// Extractor finds heuristic signer/date provenance in page text.
// The pattern set is a tunable default, not a guaranteed-correct oracle.
type Extractor struct {
	tailLines int
}

// NewExtractor creates an extractor searching the last DefaultTailLines
// lines of each page.
func NewExtractor() *Extractor {
	return &Extractor{tailLines: DefaultTailLines}
}

// NewExtractorWithTail creates an extractor with a custom tail window.
func NewExtractorWithTail(tailLines int) *Extractor {
	if tailLines <= 0 {
		tailLines = DefaultTailLines
	}
	return &Extractor{tailLines: tailLines}
}

// Extract returns a provenance string for one page of text:
//
//	"Signed by {name} on {date}"            both found
//	"Signed by {name} (date not found)"     name only
//	"Date found: {date} (signer not found)" date only
//	"Metadata is missing"                   neither
func (e *Extractor) Extract(pageText string) string {
	if strings.TrimSpace(pageText) == "" {
		return Missing
	}

	tail := e.tail(pageText)

	var foundDate string
	if m := datePattern.FindString(tail); m != "" {
		foundDate = m
	}

	var foundName string
	if m := namePattern.FindStringSubmatch(tail); m != nil {
		foundName = strings.TrimSpace(m[1])
	} else {
		foundName = fallbackName(tail)
	}

	switch {
	case foundName != "" && foundDate != "":
		return fmt.Sprintf("Signed by %s on %s", foundName, foundDate)
	case foundName != "":
		return fmt.Sprintf("Signed by %s (date not found)", foundName)
	case foundDate != "":
		return fmt.Sprintf("Date found: %s (signer not found)", foundDate)
	}
	return Missing
}

func (e *Extractor) tail(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > e.tailLines {
		lines = lines[len(lines)-e.tailLines:]
	}
	return strings.Join(lines, "\n")
}

// fallbackName scans for any bare multi-word capitalized sequence.
// Sequences of two or more words are preferred; failing that, the first
// match is taken.
func fallbackName(tail string) string {
	matches := simpleNamePattern.FindAllStringSubmatch(tail, -1)
	if len(matches) == 0 {
		return ""
	}
	for _, m := range matches {
		if len(strings.Fields(m[1])) >= 2 {
			return m[1]
		}
	}
	return matches[0][1]
}
