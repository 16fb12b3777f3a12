// Package sanitizer provides input normalization for reservation lock
// identifiers before validation and storage.
//
// All normalization functions are idempotent and handle invalid input
// gracefully, returning empty strings rather than errors.
package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reControl      = regexp.MustCompile(`[\x00-\x1f\x7f]+`)
	reWhitespace   = regexp.MustCompile(`[\t\n\v\f\r]`)
	reNonToken     = regexp.MustCompile(`[^0-9A-Za-z_\-]+`)
	reNonDateChars = regexp.MustCompile(`[^0-9\-]+`)
)

func stripControl(s string) string {
	return reControl.ReplaceAllString(s, "")
}

// SanitizeIdentifier normalizes opaque identifiers (content, lock, session
// and tab IDs): trims whitespace, strips control characters and anything
// outside the token alphabet.
func SanitizeIdentifier(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		stripControl,
		func(s string) string { return reNonToken.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}

// SanitizeDate normalizes a YYYY-MM-DD date string. It does not validate the
// calendar date; that is the validator's job.
func SanitizeDate(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		stripControl,
		func(s string) string { return reNonDateChars.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}

// SanitizeLabel normalizes free-text display labels such as hotel and room
// names: collapses runs of whitespace and strips control characters. Tabs and
// newlines count as word separators, so they become spaces before the control
// strip rather than vanishing and gluing words together.
func SanitizeLabel(input string) string {
	p := Pipeline{
		func(s string) string { return reWhitespace.ReplaceAllString(s, " ") },
		stripControl,
		strings.TrimSpace,
		collapseSpaces,
	}
	return p.Apply(input)
}

func collapseSpaces(s string) string {
	var result strings.Builder
	var lastWasSpace bool
	for _, r := range s {
		if r == ' ' {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}
	return result.String()
}
