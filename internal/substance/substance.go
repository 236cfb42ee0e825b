// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package substance normalizes pharmaceutical substance names and derives
// the URL-safe slug used as the storage namespace for a run.
package substance

import (
	"strings"
	"unicode"
)

// saltSuffixes are common salt-form suffixes stripped before searching;
// regulatory listings index the parent compound, not the salt.
var saltSuffixes = []string{
	" hcl",
	" hydrochloride",
	" sulfate",
	" sodium",
	" potassium",
}

// Normalize trims the input name and strips trailing salt-form suffixes in
// list order, so stacked forms like "sodium hcl" reduce to the parent
// compound. Already-normalized names pass through unchanged.
func Normalize(name string) string {
	clean := strings.TrimSpace(name)
	for _, suffix := range saltSuffixes {
		if strings.HasSuffix(strings.ToLower(clean), suffix) {
			clean = strings.TrimSpace(clean[:len(clean)-len(suffix)])
		}
	}
	return clean
}

// Slug derives the storage identifier from a normalized name: lowercase,
// runs of non-alphanumerics collapsed to single hyphens, no leading or
// trailing hyphens. A pure function of its input.
func Slug(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
