// Package ansi resolves markup color spans to terminal escape sequences.
package ansi

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/pgprism/pgprism/internal/render/markup"
)

var names = map[string]color.Attribute{
	"blue":         color.FgBlue,
	"purple":       color.FgMagenta,
	"green":        color.FgGreen,
	"red":          color.FgRed,
	"bright_black": color.FgHiBlack,
}

// Resolve converts the markup spans in s to terminal escapes. With colorize
// off the spans are stripped instead. Spans with an unknown color spec are
// left verbatim.
func Resolve(s string, colorize bool) string {
	if !colorize {
		return markup.Strip(s)
	}
	return markup.ReplaceSpans(s, func(spec, text string) string {
		c, ok := colorFor(spec)
		if !ok {
			return markup.Wrap(text, spec)
		}
		return c.Sprint(text)
	})
}

func colorFor(spec string) (*color.Color, bool) {
	var c *color.Color
	switch {
	case strings.HasPrefix(spec, "#") && len(spec) == 7:
		r, errR := strconv.ParseUint(spec[1:3], 16, 8)
		g, errG := strconv.ParseUint(spec[3:5], 16, 8)
		b, errB := strconv.ParseUint(spec[5:7], 16, 8)
		if errR != nil || errG != nil || errB != nil {
			return nil, false
		}
		c = color.RGB(int(r), int(g), int(b))
	default:
		attr, ok := names[spec]
		if !ok {
			return nil, false
		}
		c = color.New(attr)
	}
	// Escapes are emitted even when stdout is not a terminal; the caller
	// already decided whether color is wanted.
	c.EnableColor()
	return c, true
}
