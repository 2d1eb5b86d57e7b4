// Package markup defines the inline color-span tokens the plan renderer
// emits: "[spec]text[/spec]" where spec is a named color or "#rrggbb".
// Resolving spans to terminal escapes is left to the ansi package.
package markup

import (
	"fmt"
	"math"
	"regexp"
)

var spanPattern = regexp.MustCompile(`\[(#[0-9a-f]{6}|[a-z_]+)\](.*?)\[/(#[0-9a-f]{6}|[a-z_]+)\]`)

// Wrap surrounds text with the open and close tokens for spec.
func Wrap(text, spec string) string {
	return "[" + spec + "]" + text + "[/" + spec + "]"
}

// ReplaceSpans rewrites every well-formed span through fn. Spans whose open
// and close specs disagree are left verbatim.
func ReplaceSpans(s string, fn func(spec, text string) string) string {
	return spanPattern.ReplaceAllStringFunc(s, func(token string) string {
		m := spanPattern.FindStringSubmatch(token)
		if m[1] != m[3] {
			return token
		}
		return fn(m[1], m[2])
	})
}

// Strip removes span tokens, keeping the wrapped text.
func Strip(s string) string {
	return ReplaceSpans(s, func(_, text string) string { return text })
}

// Heat maps a [0,1] score onto a green-yellow-red gradient and returns the
// color as "#rrggbb". Scores outside the range are clamped. The lower half
// runs green to yellow with brightness rising from 70%, the upper half
// yellow to red at full brightness.
func Heat(score float64) string {
	s := math.Min(math.Max(score, 0), 1)

	var r, g float64
	if s < 0.5 {
		t := s * 2
		dim := 0.7 + 0.3*t
		r = 255 * t * dim
		g = 255 * dim
	} else {
		t := (s - 0.5) * 2
		r = 255
		g = 255 * (1 - t)
	}
	return fmt.Sprintf("#%02x%02x00", int(math.Round(r)), int(math.Round(g)))
}
