package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, dir, name string, entries []Entry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, e := range entries {
		line, err := marshalLine(e)
		require.NoError(t, err)
		_, err = f.WriteString(line + "\n")
		require.NoError(t, err)
	}
	return path
}

func marshalLine(e Entry) (string, error) {
	return fmt.Sprintf(`{"document_id":%q,"canonical_url":%q,"document_type_prefix":%q}`,
		e.DocumentID, e.CanonicalURL, e.DocumentTypePrefix), nil
}

func buildS5Entries() []Entry {
	var entries []Entry
	for i := 0; i < 250; i++ {
		entries = append(entries, Entry{
			DocumentID:         fmt.Sprintf("jlr-%03d", i),
			CanonicalURL:       fmt.Sprintf("https://example.test/jlr/%d", i),
			DocumentTypePrefix: "jlr",
		})
	}
	for i := 0; i < 100; i++ {
		entries = append(entries, Entry{
			DocumentID:         fmt.Sprintf("NJRE%03d", i),
			CanonicalURL:       fmt.Sprintf("https://example.test/njre/%d", i),
			DocumentTypePrefix: "NJRE",
		})
	}
	return entries
}

func TestListAvailable_S5Pagination(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "snap.jsonl", buildS5Entries())

	c := New()
	require.NoError(t, c.LoadSource("S", path))

	page, err := c.ListAvailable("S", "jlr", 0, 200)
	require.NoError(t, err)
	assert.Len(t, page.Items, 200)
	for _, item := range page.Items {
		assert.Equal(t, "jlr", item.DocumentTypePrefix)
	}
	assert.Equal(t, 250, page.PrefixCounts["jlr"])
	assert.Equal(t, 100, page.PrefixCounts["NJRE"])
	assert.Equal(t, 350, page.CountTotal)
	assert.Equal(t, 250, page.CountFiltered)

	page2, err := c.ListAvailable("S", "jlr", 200, 200)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 50)
	assert.Equal(t, 250, page2.PrefixCounts["jlr"])
	assert.Equal(t, 100, page2.PrefixCounts["NJRE"])
}

func TestListAvailable_OrderingIsLexicographicByDocumentID(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{DocumentID: "b-2", DocumentTypePrefix: "b"},
		{DocumentID: "a-1", DocumentTypePrefix: "a"},
		{DocumentID: "a-0", DocumentTypePrefix: "a"},
	}
	path := writeSnapshot(t, dir, "snap.jsonl", entries)

	c := New()
	require.NoError(t, c.LoadSource("S", path))

	page, err := c.ListAvailable("S", "", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "a-0", page.Items[0].DocumentID)
	assert.Equal(t, "a-1", page.Items[1].DocumentID)
	assert.Equal(t, "b-2", page.Items[2].DocumentID)
}

func TestListAvailable_UnknownSourceReturnsErrCatalogNotFound(t *testing.T) {
	c := New()
	_, err := c.ListAvailable("does-not-exist", "", 0, 10)
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestLoadSource_MissingFileReturnsErrCatalogNotFound(t *testing.T) {
	c := New()
	err := c.LoadSource("S", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestLoadSource_CorruptFileReturnsErrCatalogNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	c := New()
	err := c.LoadSource("S", path)
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestListAvailable_OffsetBeyondRangeReturnsEmptyItems(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "snap.jsonl", []Entry{{DocumentID: "a", DocumentTypePrefix: "a"}})

	c := New()
	require.NoError(t, c.LoadSource("S", path))

	page, err := c.ListAvailable("S", "", 100, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.CountTotal)
}
