package legalhtml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<!DOCTYPE html>
<html><head><title>Sample</title></head>
<body>
<h1>Sample Act</h1>
<div role="norm-id">§ 1</div>
<div role="norm-title">Scope</div>
<p role="paragraph">This Act applies to all sample matters.</p>
<p role="paragraph">It does not apply to excluded matters.</p>
</body></html>`

func TestParse_ExtractsNormAndParagraphs(t *testing.T) {
	n, err := Parse(strings.NewReader(sampleHTML), "SampleAct", nil)
	require.NoError(t, err)

	assert.Equal(t, "SampleAct", n.LawAbbrev)
	assert.Equal(t, "Sample Act", n.LawTitle)
	assert.Equal(t, "§ 1", n.NormID)
	assert.Equal(t, "Scope", n.NormTitle)
	require.Len(t, n.Paragraphs, 2)
	assert.Equal(t, 1, n.Paragraphs[0].Index)
	assert.Equal(t, "This Act applies to all sample matters.", n.Paragraphs[0].Text)
	assert.Equal(t, 2, n.Paragraphs[1].Index)
	assert.Contains(t, n.FullText, "excluded matters")
}

func TestParse_MissingNormIDReturnsError(t *testing.T) {
	html := `<html><body><p role="paragraph">no norm id here</p></body></html>`
	_, err := Parse(strings.NewReader(html), "X", nil)
	assert.ErrorIs(t, err, ErrNoNormID)
}

func TestParse_FallsBackToFullDocumentTextWhenNoParagraphRoles(t *testing.T) {
	html := `<html><body><div role="norm-id">§ 2</div>plain body text here</body></html>`
	n, err := Parse(strings.NewReader(html), "X", nil)
	require.NoError(t, err)
	assert.Empty(t, n.Paragraphs)
	assert.Contains(t, n.FullText, "plain body text here")
}

func TestNorm_DocumentIDDerivation(t *testing.T) {
	n, err := Parse(strings.NewReader(sampleHTML), "SampleAct", nil)
	require.NoError(t, err)

	assert.Equal(t, "sampleact_para_1", n.DocumentID())
	assert.Equal(t, "sampleact_para_1_abs_1", n.ParagraphDocumentID(n.Paragraphs[0]))
	assert.Equal(t, "sampleact_para_1_abs_2", n.ParagraphDocumentID(n.Paragraphs[1]))
}
