// Package download turns retrieval results into things a caller can hand to
// a user: filesystem-safe names and zipped transcript bundles.
package download

import (
	"strings"

	"github.com/captext/captext/internal/engine"
)

// DefaultName substitutes for names that sanitize away to nothing.
const DefaultName = "transcript_file"

// maxNameLen bounds sanitized names in runes; most filesystems cap at 255
// bytes and callers append an extension and an index.
const maxNameLen = 200

// SanitizeFilename returns a filesystem-safe version of name: the characters
// \ / * ? : " < > | are stripped, spaces become underscores, the result is
// bounded in length, and an empty result falls back to DefaultName.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)

	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			// dropped
		case ' ':
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}

	// Bound by runes, not bytes; a byte cut can split a multi-byte rune and
	// yield an invalid UTF-8 name.
	out := engine.TruncateRunes(sb.String(), maxNameLen, "")
	if out == "" {
		return DefaultName
	}
	return out
}
