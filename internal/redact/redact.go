// Package redact provides bounded, content-free error summaries.
//
// Several invariants in this codebase require that failures never leak raw
// document bytes, file contents, or embedding vectors back to a caller:
// per-document ingestion failures are reported with a short message only,
// and path-resolution errors must never echo file contents. This package
// is the single place that turns an arbitrary error (which may wrap an
// underlying error carrying a content snippet, e.g. a parser error
// embedding the offending line) into a bounded, safe-to-surface string.
package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSummaryLen is the default cap applied by Summarize.
const MaxSummaryLen = 200

// secretLike matches tokens that look like credentials or API keys, so that
// even a message built from upstream library errors never echoes one verbatim.
var secretLike = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|bearer)\s*[:=]\s*\S+`)

// Summarize truncates msg to at most maxLen runes (ending on a rune boundary),
// strips newlines (which could be used to forge additional log lines), and
// redacts anything that looks like a credential.
//
// maxLen <= 0 uses MaxSummaryLen.
func Summarize(msg string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = MaxSummaryLen
	}

	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = secretLike.ReplaceAllString(msg, "$1=[REDACTED]")

	return truncateRunes(msg, maxLen)
}

// truncateRunes truncates s to at most n runes without splitting a codepoint,
// appending an ellipsis marker when truncation occurred.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	// The ellipsis counts toward the n-rune cap.
	return string(runes[:n-1]) + "…"
}

// Error wraps an error into a bounded, redacted string suitable for a
// per-document error list entry or a structured validation error. Never
// call this with the raw error's full chain if that chain may itself embed
// document content; callers own constructing a content-free message where
// a library's error already risks doing that.
func Error(err error, maxLen int) string {
	if err == nil {
		return ""
	}
	return Summarize(err.Error(), maxLen)
}
