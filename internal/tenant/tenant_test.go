package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrg(t *testing.T) {
	cases := map[string]string{
		"git@github.com:acme-corp/repo.git":    "acme-corp",
		"https://github.com/AcmeCorp/repo.git": "AcmeCorp",
		"https://gitlab.com/acme/repo":         "acme",
		"not-a-remote-url":                     "",
	}
	for url, want := range cases {
		assert.Equal(t, want, extractOrg(url), "extractOrg(%q)", url)
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "acme-corp_1", sanitize("Acme-Corp_1"))
	assert.Equal(t, "acmecorp", sanitize("Acme Corp!"))
}

func TestForPath_NotARepo(t *testing.T) {
	assert.Equal(t, "", ForPath(t.TempDir()))
}

func TestForPath_EmptyInput(t *testing.T) {
	assert.Equal(t, "", ForPath(""))
}
