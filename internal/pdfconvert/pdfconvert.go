// Package pdfconvert implements C10, the PDF-to-Markdown converter. It
// extracts layout-preserving plain text page by page and serializes it as
// Markdown paragraphs; it never invents headings PDF extraction cannot
// reliably detect.
package pdfconvert

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/ledongthuc/pdf"
)

// ErrNoExtractableText is returned when every page yields empty text.
var ErrNoExtractableText = errors.New("pdfconvert: no extractable text in PDF")

// DefaultCharCap is the per-file output character cap (§4.10).
const DefaultCharCap = 5_000_000

// Result is per-file conversion metadata. Convert returns the Markdown body
// separately and leaves OutputPath empty; the caller that writes the body
// to disk fills it in.
type Result struct {
	OutputPath string
	BytesIn    int64
	BytesOut   int64
	ElapsedMS  int64
	Pages      int
}

// Options configures Convert.
type Options struct {
	// CharCap bounds the extracted text, in characters, before Markdown
	// serialization; 0 uses DefaultCharCap.
	CharCap int
}

func (o *Options) applyDefaults() {
	if o.CharCap <= 0 {
		o.CharCap = DefaultCharCap
	}
}

// Convert extracts text from the PDF at path and returns it serialized as
// Markdown, plus conversion metadata. Convert only reads the PDF; the
// caller writes the Markdown (the engine writes it to a sidecar path
// derived from the C1-resolved input path).
func Convert(path string, fileSize int64, opts Options) (string, Result, error) {
	opts.applyDefaults()
	start := time.Now()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", Result{}, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	var pageTexts []string
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pageTexts = append(pageTexts, joinHyphenatedLines(text))
	}

	if len(pageTexts) == 0 {
		return "", Result{}, ErrNoExtractableText
	}

	plain := strings.Join(pageTexts, "\n\n")
	plain = collapseBlankLines(plain)
	if runes := []rune(plain); len(runes) > opts.CharCap {
		plain = string(runes[:opts.CharCap])
	}

	md, err := plainTextToMarkdown(plain)
	if err != nil {
		return "", Result{}, fmt.Errorf("converting %s to markdown: %w", path, err)
	}

	return md, Result{
		BytesIn:   fileSize,
		BytesOut:  int64(len(md)),
		ElapsedMS: time.Since(start).Milliseconds(),
		Pages:     totalPages,
	}, nil
}

// plainTextToMarkdown passes layout-preserving text through the HTML→
// Markdown converter as a sequence of escaped paragraphs, so the same
// serialization path handles renderer output (HTML) and PDF-extracted
// text (via this passthrough) identically.
func plainTextToMarkdown(text string) (string, error) {
	paragraphs := strings.Split(text, "\n\n")
	var htmlBuilder strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		htmlBuilder.WriteString("<p>")
		htmlBuilder.WriteString(html.EscapeString(p))
		htmlBuilder.WriteString("</p>\n")
	}

	md, err := htmltomarkdown.ConvertString(htmlBuilder.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// joinHyphenatedLines rejoins words split by a trailing hyphen at a line
// wrap ("docu-\nment" -> "document"), a common PDF extraction artifact.
func joinHyphenatedLines(text string) string {
	lines := strings.Split(text, "\n")
	var out strings.Builder
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " ")
		if strings.HasSuffix(trimmed, "-") && i+1 < len(lines) && startsWithLower(lines[i+1]) {
			out.WriteString(strings.TrimSuffix(trimmed, "-"))
			continue
		}
		out.WriteString(trimmed)
		if i+1 < len(lines) {
			out.WriteString("\n")
		}
	}
	return out.String()
}

func startsWithLower(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return r >= 'a' && r <= 'z'
}

// collapseBlankLines reduces 3+ consecutive newlines to exactly 2,
// treating a blank line as a paragraph break.
func collapseBlankLines(text string) string {
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}
