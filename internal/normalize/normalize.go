// SPDX-License-Identifier: MIT

// Package normalize cleans up channel names coming from the upstream catalog.
// Names mix full-width and half-width forms and occasionally carry stray
// whitespace; playlist and XMLTV consumers want a single canonical form.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// DisplayName returns the canonical display form of a channel name: NFC
// composed, full-width ASCII folded to half-width, whitespace collapsed.
// CJK characters are left alone.
func DisplayName(s string) string {
	s = norm.NFC.String(s)
	s = width.Narrow.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// StableID derives a deterministic identifier from a channel name, used as a
// fallback when a catalog entry has no external id. Lowercased, with runs of
// non-alphanumeric ASCII collapsed to single underscores.
func StableID(name string) string {
	s := strings.ToLower(DisplayName(name))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	id := strings.TrimRight(b.String(), "_")
	if id == "" {
		return "unknown"
	}
	return id
}
