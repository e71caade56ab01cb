// Package normalizers provides field normalization for duplicate matching
package normalizers

import (
	"regexp"
	"strings"
	"unicode"
)

var spaceRe = regexp.MustCompile(`\s+`)

// institutionStopwords are generic government tokens that carry no identity:
// "Franklin County Office" and "Franklin" name the same institution.
var institutionStopwords = map[string]struct{}{
	"county":     {},
	"city":       {},
	"district":   {},
	"department": {},
	"office":     {},
	"of":         {},
	"the":        {},
}

// NormalizeInstitution normalizes an institution name for matching
// - Lowercase and trim
// - Remove everything except letters, digits, underscores and whitespace
// - Collapse whitespace runs
// - Remove generic government stopword tokens
//
// The result is stable: normalizing an already-normalized name is a no-op.
func NormalizeInstitution(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var cleaned strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		}
	}

	s = spaceRe.ReplaceAllString(cleaned.String(), " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, ok := institutionStopwords[w]; !ok {
			kept = append(kept, w)
		}
	}

	return strings.Join(kept, " ")
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailDomain returns the domain of an email address, or "" when the address
// has no '@'.
func EmailDomain(s string) string {
	s = NormalizeEmail(s)
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return ""
	}
	return s[at+1:]
}

// NormalizeWebsite normalizes a website URL for comparison
// - Lowercase and trim
// - Strip http:// or https:// scheme
// - Strip a leading www.
// - Strip a trailing slash
func NormalizeWebsite(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	return s
}
