// Package legalhtml extracts norm and paragraph documents from legal HTML
// pages (C3's legal-HTML mode).
package legalhtml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrNoNormID is returned when the HTML carries no "norm-id" role element.
var ErrNoNormID = errors.New("no norm-id element found")

// roleAttr names the structural role attribute, and roleNormID,
// roleNormTitle and roleParagraph are the values this parser recognises,
// matching how the upstream corpus renders its norms.
const (
	roleAttr      = "role"
	roleNormID    = "norm-id"
	roleNormTitle = "norm-title"
	roleParagraph = "paragraph"
)

// Paragraph is one structural paragraph within a norm, numbered from 1.
type Paragraph struct {
	Index int
	Text  string
}

// Norm is the extraction result for a single legal-norm HTML page.
type Norm struct {
	LawAbbrev  string // caller-supplied, used for document_id derivation
	LawTitle   string
	NormID     string
	NormTitle  string
	FullText   string
	Paragraphs []Paragraph
}

// Parse decodes r as the declared legacy single-byte encoding (falling back
// to replacement bytes rather than failing) and extracts a Norm.
//
// lawAbbrev is supplied by the caller (one HTML page never states it) and
// is used only for document id derivation downstream.
func Parse(r io.Reader, lawAbbrev string, legacyEncoding encoding.Encoding) (*Norm, error) {
	if legacyEncoding == nil {
		legacyEncoding = charmap.ISO8859_1
	}

	decoded, err := decodeLossy(r, legacyEncoding)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, err
	}

	n := &Norm{LawAbbrev: lawAbbrev}

	var walk func(*html.Node)
	var headingFound bool
	var paraIndex int
	var fullTextParts []string

	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "h1":
				if !headingFound {
					n.LawTitle = strings.TrimSpace(textOf(node))
					headingFound = true
				}
			}
			switch roleOf(node) {
			case roleNormID:
				if n.NormID == "" {
					n.NormID = strings.TrimSpace(textOf(node))
				}
			case roleNormTitle:
				if n.NormTitle == "" {
					n.NormTitle = strings.TrimSpace(textOf(node))
				}
			case roleParagraph:
				paraIndex++
				text := strings.TrimSpace(textOf(node))
				n.Paragraphs = append(n.Paragraphs, Paragraph{Index: paraIndex, Text: text})
				fullTextParts = append(fullTextParts, text)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if n.NormID == "" {
		return nil, ErrNoNormID
	}

	if len(fullTextParts) > 0 {
		n.FullText = strings.Join(fullTextParts, "\n\n")
	} else {
		n.FullText = strings.TrimSpace(textOf(doc))
	}

	return n, nil
}

// DocumentID derives the norm's document_id per §4.3:
// `{law_abbrev_lowercased}_para_{normalised_norm_id}`.
func (n *Norm) DocumentID() string {
	return fmt.Sprintf("%s_para_%s", strings.ToLower(n.LawAbbrev), normaliseNormID(n.NormID))
}

// ParagraphDocumentID derives a paragraph's document_id:
// `{norm_document_id}_abs_{paragraph_index}`.
func (n *Norm) ParagraphDocumentID(p Paragraph) string {
	return fmt.Sprintf("%s_abs_%d", n.DocumentID(), p.Index)
}

// normaliseNormID strips characters that don't survive round-tripping
// through identifiers: case lowers, "§" drops, every other run of
// characters outside [a-z0-9] collapses to one underscore, and leading or
// trailing underscores are trimmed ("§ 433" -> "433", "Art 1" -> "art_1").
func normaliseNormID(id string) string {
	var sb strings.Builder
	lastWasSep := false
	for _, r := range strings.ToLower(id) {
		switch {
		case r == '§':
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastWasSep = false
		default:
			if !lastWasSep && sb.Len() > 0 {
				sb.WriteByte('_')
				lastWasSep = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}

func roleOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == roleAttr {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// decodeLossy decodes r from enc, replacing undecodable bytes instead of
// failing, per §4.3's "never fail the document" rule.
func decodeLossy(r io.Reader, enc encoding.Encoding) ([]byte, error) {
	decoder := enc.NewDecoder()
	reader := transform.NewReader(r, encoding.ReplaceUnsupported(decoder))
	return io.ReadAll(reader)
}
