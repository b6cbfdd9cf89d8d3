package pdfconvert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinHyphenatedLines_RejoinsWordSplitAtLineWrap(t *testing.T) {
	in := "This is a docu-\nment about statutes."
	out := joinHyphenatedLines(in)
	assert.Equal(t, "This is a document about statutes.", out)
}

func TestJoinHyphenatedLines_DoesNotJoinWhenNextLineStartsUppercase(t *testing.T) {
	in := "End of sentence-\nNext sentence starts here."
	out := joinHyphenatedLines(in)
	assert.Contains(t, out, "sentence-\nNext")
}

func TestCollapseBlankLines_ReducesRunsToDouble(t *testing.T) {
	in := "Paragraph one.\n\n\n\n\nParagraph two."
	out := collapseBlankLines(in)
	assert.Equal(t, "Paragraph one.\n\nParagraph two.", out)
}

func TestPlainTextToMarkdown_EscapesAndParagraphs(t *testing.T) {
	md, err := plainTextToMarkdown("First paragraph with <tag>.\n\nSecond paragraph.")
	require.NoError(t, err)
	assert.Contains(t, md, "First paragraph")
	assert.Contains(t, md, "Second paragraph")
	assert.NotContains(t, md, "<tag>")
}

func TestConvert_NonexistentFileReturnsError(t *testing.T) {
	_, _, err := Convert("/nonexistent/path.pdf", 0, Options{})
	assert.Error(t, err)
}
