package mt103

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLen       = 35
	maxRemittanceLen = 140
	maxAccountLen    = 34
	maxReferenceLen  = 16
	bicLen           = 12
)

// freeText drops line breaks, other control characters and block braces,
// turns colons into spaces so no :TAG: sequence survives, collapses
// whitespace runs and truncates to max runes.
func freeText(s string, max int) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r == '\r' || r == '\n':
			continue
		case r == '{' || r == '}':
			continue
		case r == ':' || unicode.IsControl(r) || unicode.IsSpace(r):
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return truncate(strings.TrimSpace(b.String()), max)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return strings.TrimSpace(s[:i])
		}
		n++
	}
	return s
}

func alnumUpper(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lettersUpper(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func account(s string) string {
	a := alnumUpper(s)
	if len(a) > maxAccountLen {
		return a[:maxAccountLen]
	}
	return a
}

func last4(s string) string {
	a := alnumUpper(s)
	if len(a) > 4 {
		return a[len(a)-4:]
	}
	return a
}

// logicalTerminal widens an 8 or 11 character BIC to the 12 character
// logical terminal address used in the header blocks.
func logicalTerminal(bic string) string {
	b := alnumUpper(bic)
	switch {
	case len(b) >= bicLen:
		return b[:bicLen]
	case len(b) >= 11:
		return b[:8] + "X" + b[8:11]
	case len(b) >= 8:
		return b[:8] + "XXXX"
	default:
		return b + strings.Repeat("X", bicLen-len(b))
	}
}
