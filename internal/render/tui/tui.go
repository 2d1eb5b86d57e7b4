package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/insight"
	"github.com/pgprism/pgprism/internal/render"
	"github.com/pgprism/pgprism/internal/render/ansi"
)

// Options controls how the terminal renderer behaves.
type Options struct {
	Color        bool
	Icons        bool
	Heat         bool
	ShowInsights bool
}

// Render writes the annotated plan to w, resolving markup to terminal
// escapes when color is enabled and stripping it otherwise.
func Render(w io.Writer, analysis *analyzer.Analysis, opts Options) error {
	if w == nil {
		return errors.New("tui: writer is nil")
	}
	if analysis == nil || analysis.Root == nil {
		return errors.New("tui: empty analysis")
	}

	text := render.Plan(analysis, render.Options{Icons: opts.Icons, Heat: opts.Heat})
	_, _ = io.WriteString(w, ansi.Resolve(text, opts.Color))

	if opts.ShowInsights {
		renderInsights(w, analysis)
	}

	return nil
}

func renderInsights(w io.Writer, analysis *analyzer.Analysis) {
	messages := insight.Messages(analysis)
	if len(messages) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Insights:")
	for _, msg := range messages {
		_, _ = fmt.Fprintf(w, "  - %s %s\n", severityIcon(msg.Severity), msg.Text)
	}
}

func severityIcon(sev insight.Severity) string {
	switch sev {
	case insight.SeverityCritical:
		return "🔥"
	case insight.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
