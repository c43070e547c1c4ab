// Package parser turns a report title into structured fields. It is pure:
// no I/O, no state, and it never panics on any input string.
package parser

import (
	"regexp"
	"strings"
)

// titlePattern requires a leading bracketed variant tag followed by at least
// one non-whitespace character of subject text.
var titlePattern = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*(\S.*)$`)

// tokenSplit breaks offense and title text into words on runs of pipes,
// slashes and whitespace.
var tokenSplit = regexp.MustCompile(`[|/\s]+`)

// Parsed is the structured form of a valid report title.
type Parsed struct {
	Variant         string
	Subject         string
	OffenseCategory string
	OffenseTokens   []string
	Blatant         bool
	FlairDisplay    string
	FlairCSS        string
	HasFlair        bool
}

// Parse validates and decomposes a submission title. The second return is
// false when the title does not match the grammar; callers reply with the
// malformatted-title message and reject.
//
// defaultToCheating controls the flair fallback: when no flair keyword is
// found in the title, the result carries the Cheating flair if true and no
// flair at all if false.
func Parse(title string, defaultToCheating bool) (*Parsed, bool) {
	m := titlePattern.FindStringSubmatch(title)
	if m == nil {
		return nil, false
	}

	rest := m[2]
	subject := rest
	offense := rest
	if i := strings.Index(rest, "|"); i >= 0 {
		subject = rest[:i]
		offense = rest[i+1:]
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, false
	}

	tokens := tokenize(offense)
	p := &Parsed{
		Variant:         parseVariant(m[1]),
		Subject:         subject,
		OffenseCategory: classifyOffense(tokens),
		OffenseTokens:   tokens,
		Blatant:         anyToken(tokens, blatantWords),
	}
	p.FlairDisplay, p.FlairCSS, p.HasFlair = classifyFlair(title, defaultToCheating)
	return p, true
}

// parseVariant resolves the bracket tag to a variant code. The optional game
// prefix is stripped first; anything unrecognized degrades to standard rather
// than invalidating the title.
func parseVariant(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, prefix := range variantPrefixes {
		tag = strings.ReplaceAll(tag, prefix, "")
	}
	tag = strings.TrimSpace(tag)
	if v, ok := variantNames[tag]; ok {
		return v
	}
	return VariantStandard
}

func tokenize(text string) []string {
	var tokens []string
	for _, t := range tokenSplit.Split(strings.ToLower(text), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func classifyOffense(tokens []string) string {
	for _, cat := range offenseTable {
		if anyToken(tokens, cat.Keywords) {
			return cat.Name
		}
	}
	return OffenseOther
}

// classifyFlair scans the whole original title, not just the offense segment,
// so a tag like "[ Discussion ]" anywhere in the title still wins.
func classifyFlair(title string, defaultToCheating bool) (display, css string, ok bool) {
	tokens := tokenize(title)
	for _, f := range flairTable {
		if anyToken(tokens, f.Keywords) {
			return f.Display, f.CSSClass, true
		}
	}
	if defaultToCheating {
		return defaultFlair.Display, defaultFlair.CSSClass, true
	}
	return "", "", false
}

func anyToken(tokens, words []string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}
