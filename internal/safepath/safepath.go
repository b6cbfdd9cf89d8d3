// Package safepath resolves caller-supplied relative paths against an
// allowlisted root directory, guaranteeing file-based ingestion can never
// escape that root (C1 in the design).
package safepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors. Messages never include file contents.
var (
	ErrPathAbsolute      = errors.New("relative path must not be absolute")
	ErrPathTraversal     = errors.New("relative path must not contain a .. component")
	ErrPathEscape        = errors.New("resolved path escapes the allowlisted root")
	ErrNotRegularFile    = errors.New("path does not resolve to a regular file")
	ErrSuffixNotAllowed  = errors.New("file suffix is not in the allowlist")
	ErrTooLarge          = errors.New("file exceeds the configured size cap")
	ErrRootMisconfigured = errors.New("ingest root is misconfigured")
)

// DefaultTextSizeCap is the default cap for plain text / Markdown reads.
const DefaultTextSizeCap = 2_000_000

// DefaultConvertedSizeCap is the default cap for converter output reads.
const DefaultConvertedSizeCap = 5_000_000

// Resolver validates relative paths against one allowlisted root.
type Resolver struct {
	root string
}

// NewResolver validates that root exists, is absolute, and is a directory,
// then returns a Resolver scoped to it.
func NewResolver(root string) (*Resolver, error) {
	if root == "" || !filepath.IsAbs(root) {
		return nil, fmt.Errorf("%w: root must be an absolute path", ErrRootMisconfigured)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootMisconfigured, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root is not a directory", ErrRootMisconfigured)
	}

	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootMisconfigured, err)
	}

	return &Resolver{root: canonicalRoot}, nil
}

// Root returns the canonicalised root this resolver is scoped to.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve applies the ordered rules of §4.1: rejects absolute paths and `..`
// components, canonicalises against the root following symlinks, requires
// the result to stay under the root, to be a regular file, to carry an
// allowed suffix, and to not exceed maxBytes.
func (r *Resolver) Resolve(relativePath string, allowedSuffixes []string, maxBytes int64) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", ErrPathAbsolute
	}

	cleaned := filepath.Clean(relativePath)
	for _, part := range strings.Split(cleaned, string(filepath.Separator)) {
		if part == ".." {
			return "", ErrPathTraversal
		}
	}

	candidate := filepath.Join(r.root, cleaned)

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathEscape, err)
	}

	if !isWithinRoot(r.root, resolved) {
		return "", ErrPathEscape
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotRegularFile, err)
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotRegularFile
	}

	if len(allowedSuffixes) > 0 && !hasAllowedSuffix(resolved, allowedSuffixes) {
		return "", ErrSuffixNotAllowed
	}

	if maxBytes > 0 && info.Size() > maxBytes {
		return "", ErrTooLarge
	}

	return resolved, nil
}

// isWithinRoot reports whether candidate is root itself or a descendant of
// it, checked at a path-component boundary (not a naive string prefix,
// which would wrongly accept "/root-evil" for root "/root").
func isWithinRoot(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasAllowedSuffix(path string, allowed []string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range allowed {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}
