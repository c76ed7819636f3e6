// Package converter turns uploaded PDF and DOCX files into markdown text.
//
// Conversion never fails with an error value: failures are reported as text
// beginning with a recognizable marker so that ingestion can degrade to a
// fallback content path instead of rejecting the document.
package converter

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docrag/internal/domain"
)

// Failure markers recognized by the ingestion pipeline.
var errorMarkers = []string{
	"Error during conversion:",
	"Unexpected error",
	"Unsupported file type:",
}

// HasErrorMarker reports whether text starts with a conversion failure
// marker.
func HasErrorMarker(text string) bool {
	for _, m := range errorMarkers {
		if strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}

// Converter converts PDF and DOCX bytes to markdown and extracts per-page
// text with provenance metadata from PDFs.
type Converter struct {
	extractor      domain.MetadataExtractor
	markitdownPath string
}

// Option configures the converter.
type Option func(*Converter)

// WithMarkitdown sets the path of a markitdown binary to shell out to for
// PDF conversion. When empty, direct text extraction is used.
func WithMarkitdown(path string) Option {
	return func(c *Converter) {
		c.markitdownPath = path
	}
}

// New creates a converter using the given metadata extractor for per-page
// provenance.
func New(extractor domain.MetadataExtractor, opts ...Option) *Converter {
	c := &Converter{extractor: extractor}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert turns file bytes into markdown text. The file extension selects
// the conversion path; anything other than .pdf or .docx yields an
// unsupported-type marker.
func (c *Converter) Convert(content []byte, filename string) (markdown string) {
	defer func() {
		if r := recover(); r != nil {
			markdown = fmt.Sprintf("Unexpected error during conversion: %v", r)
		}
	}()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return c.convertPDF(content, filename)
	case ".docx":
		return c.convertDOCX(content)
	default:
		return fmt.Sprintf("Unsupported file type: %s. Please upload a PDF or DOCX file.",
			strings.ToLower(filepath.Ext(filename)))
	}
}

func (c *Converter) convertPDF(content []byte, filename string) string {
	if c.markitdownPath != "" {
		if md, err := c.runMarkitdown(content, filename); err == nil {
			return md
		}
		// markitdown failed; fall back to direct extraction with the
		// original preamble so the extracted text is still chunked.
		text, err := extractPDFText(content)
		if err != nil {
			return fmt.Sprintf("Error during conversion: %v", err)
		}
		return "Error during markitdown conversion. Falling back to direct text extraction:\n\n" + text
	}
	text, err := extractPDFText(content)
	if err != nil {
		return fmt.Sprintf("Error during conversion: %v", err)
	}
	return text
}

func (c *Converter) convertDOCX(content []byte) string {
	text, err := extractDOCXText(content)
	if err != nil {
		return fmt.Sprintf("Error during conversion: %v", err)
	}
	return text
}

// runMarkitdown converts via the markitdown CLI using temporary files.
func (c *Converter) runMarkitdown(content []byte, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "docrag-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	outPath := filepath.Join(os.TempDir(), strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))+".md")
	defer os.Remove(outPath)

	cmd := exec.Command(c.markitdownPath, tmpPath, "--output", outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("markitdown: %v: %s", err, bytes.TrimSpace(out))
	}
	md, err := os.ReadFile(outPath)
	if err != nil {
		return "", err
	}
	return string(md), nil
}

// ExtractPages returns text and provenance metadata for each PDF page.
// A page whose text extraction fails contributes an empty text rather than
// aborting the document; a PDF that cannot be parsed at all yields nil,
// which callers treat as "fall back to whole-document chunking".
func (c *Converter) ExtractPages(content []byte) (pages []domain.PageData) {
	defer func() {
		if recover() != nil {
			pages = nil
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		text := extractPageText(reader, i)
		pages = append(pages, domain.PageData{
			Number:   i,
			Text:     text,
			Metadata: c.extractor.Extract(text),
		})
	}
	return pages
}

// extractPageText returns one page's plain text, or "" when extraction
// fails or panics.
func extractPageText(reader *pdf.Reader, number int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := reader.Page(number)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// extractPDFText extracts the whole document's text, pages separated by
// blank lines.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf extraction failed: %v", r)
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if rerr != nil {
		return "", rerr
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText := extractPageText(reader, i)
		if pageText == "" {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}
