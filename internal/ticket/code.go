// Package ticket canonicalizes ticket codes as printed on badges and QR codes.
//
// A code looks like PREFIX-XXXXX-XXXX: a 2..8 character alphanumeric prefix,
// then groups of five and four alphanumerics. Input is case-insensitive;
// the canonical form is upper-case.
package ticket

import (
	"regexp"
	"strings"

	"doorcheck/entity"
)

var pattern = regexp.MustCompile(`^[A-Z0-9]{2,8}-[A-Z0-9]{5}-[A-Z0-9]{4}$`)

// Normalize strips everything outside ASCII letters, digits and '-', then
// upper-cases and checks the result against the code pattern. Non-ASCII
// letters are dropped, never case-folded into code letters.
func Normalize(raw string) (string, error) {
	kept := strings.Map(func(r rune) rune {
		if inAlphabet(r) {
			return r
		}
		return -1
	}, raw)
	code := strings.ToUpper(kept)
	if !pattern.MatchString(code) {
		return "", entity.ErrInvalidFormat
	}
	return code, nil
}

// Valid reports whether code is already in canonical form.
func Valid(code string) bool {
	return pattern.MatchString(code)
}

func inAlphabet(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
}
