// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident normalizes and validates ORCID identifiers and pulls DOIs
// out of free text.
package ident

import (
	"regexp"
	"strings"
)

// orcidPattern matches a hyphenated ORCID iD. The last character is a
// checksum digit or X.
var orcidPattern = regexp.MustCompile(`(?i)^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

// doiPattern finds a DOI anywhere in a string: "https://doi.org/10.1145/123".
var doiPattern = regexp.MustCompile(`(10\.\d{4,9}/[^\s"<>]+)`)

// NormalizeORCID strips spaces and, when exactly 16 characters remain after
// removing hyphens, regroups them as XXXX-XXXX-XXXX-XXXX. Other inputs are
// returned trimmed but otherwise untouched so they can be reported as invalid.
func NormalizeORCID(s string) string {
	o := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	raw := strings.ReplaceAll(o, "-", "")
	if len(raw) == 16 {
		// The checksum digit may be X; the ORCID API expects it uppercase.
		return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12] + "-" + raw[12:15] + strings.ToUpper(raw[15:])
	}
	return o
}

// ValidORCID reports whether s is a well-formed ORCID after normalization.
func ValidORCID(s string) bool {
	return orcidPattern.MatchString(NormalizeORCID(s))
}

// CleanORCIDs normalizes a raw column of cells, drops blanks and spreadsheet
// null markers ("nan", "none"), and deduplicates while keeping first-seen
// order. Each distinct value lands in exactly one of valid or invalid.
func CleanORCIDs(raw []string) (valid, invalid []string) {
	seen := make(map[string]bool, len(raw))
	for _, cell := range raw {
		o := NormalizeORCID(cell)
		if o == "" {
			continue
		}
		switch strings.ToLower(o) {
		case "nan", "none":
			continue
		}
		if seen[o] {
			continue
		}
		seen[o] = true
		if orcidPattern.MatchString(o) {
			valid = append(valid, o)
		} else {
			invalid = append(invalid, o)
		}
	}
	return valid, invalid
}

// DOIFromText returns the first DOI found in text with trailing punctuation
// ").,;]" removed, or "" when there is none.
func DOIFromText(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	m := doiPattern.FindString(t)
	return strings.TrimRight(m, ").,;]")
}
