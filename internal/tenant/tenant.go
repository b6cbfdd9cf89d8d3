// Package tenant fills in an omitted tenant_id RPC argument from the
// enclosing git repository's remote, when the caller supplies a
// project_path but no explicit tenant_id. This is a convenience only:
// every user_documents write still requires a non-empty tenant_id by the
// time it reaches C7 (§3 invariant 2) — this package just derives the
// value callers would otherwise have to type themselves.
package tenant

import (
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
)

var (
	sshRemote   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/`)
	httpsRemote = regexp.MustCompile(`https?://[^/]+/([^/]+)/`)
)

// ForPath derives a tenant identifier from projectPath's git "origin"
// remote (e.g. "acme" from git@github.com:acme/repo.git), or "" if
// projectPath is not a git repository, has no origin remote, or the
// remote URL doesn't match a recognised host/org shape.
func ForPath(projectPath string) string {
	if projectPath == "" {
		return ""
	}

	repo, err := git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return ""
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}

	return sanitize(extractOrg(urls[0]))
}

func extractOrg(url string) string {
	if m := sshRemote.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	if m := httpsRemote.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	return ""
}

// sanitize lowercases org and keeps only [a-z0-9_-], matching the
// character set tenant_id is expected to round-trip through vector-store
// metadata filters unescaped.
func sanitize(org string) string {
	org = strings.ToLower(strings.TrimSpace(org))
	var b strings.Builder
	for _, r := range org {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
