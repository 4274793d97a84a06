package browser

import (
	"regexp"
	"strings"
)

// Selector is a parsed selector in the dialect every driver understands:
//
//	button.primary                  plain CSS
//	button:has-text("Add to cart")  CSS narrowed by contained text
//	text=Your cart is empty         deepest element containing the text
//
// Text matching is case-insensitive on whitespace-normalised text, the way
// Playwright matches :has-text.
type Selector struct {
	Raw     string
	CSS     string
	HasText string
	Text    string
}

var hasTextPattern = regexp.MustCompile(`:has-text\(\s*(?:"([^"]*)"|'([^']*)')\s*\)`)

// ParseSelector splits raw into its CSS part and text filter.
func ParseSelector(raw string) Selector {
	sel := Selector{Raw: raw}
	trimmed := strings.TrimSpace(raw)

	if rest, ok := strings.CutPrefix(trimmed, "text="); ok {
		sel.Text = unquote(strings.TrimSpace(rest))
		return sel
	}

	if m := hasTextPattern.FindStringSubmatchIndex(trimmed); m != nil {
		if m[2] >= 0 {
			sel.HasText = trimmed[m[2]:m[3]]
		} else {
			sel.HasText = trimmed[m[4]:m[5]]
		}
		// A bare :has-text applies to any element.
		prefix := trimmed[:m[0]]
		if prefix == "" || strings.HasSuffix(prefix, " ") || strings.HasSuffix(prefix, ">") {
			prefix += "*"
		}
		trimmed = prefix + trimmed[m[1]:]
	}

	sel.CSS = strings.TrimSpace(trimmed)
	return sel
}

// MatchesText reports whether text satisfies the selector's text filter.
func (s Selector) MatchesText(text string) bool {
	needle := s.HasText
	if s.Text != "" {
		needle = s.Text
	}
	if needle == "" {
		return true
	}
	return strings.Contains(NormalizeText(text), NormalizeText(needle))
}

// NormalizeText lower-cases text and collapses runs of whitespace.
func NormalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
