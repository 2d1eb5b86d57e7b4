// Package render rebuilds a plan's textual form, layering markup color spans
// and icons over the original structure.
package render

import (
	"fmt"
	"strings"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/category"
	"github.com/pgprism/pgprism/internal/render/markup"
)

// Options control the annotations layered onto the rendered plan.
type Options struct {
	Icons bool
	Heat  bool
}

// Plan renders an analyzed plan back to text. Node types are wrapped in
// their category color; with Heat enabled the cost and time ranges are
// wrapped in the node's heat color. Tail lines pass through verbatim.
func Plan(analysis *analyzer.Analysis, opts Options) string {
	var b strings.Builder
	writeNode(&b, analysis.Root, opts)
	for _, line := range analysis.Plan.Tail {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeNode(b *strings.Builder, stats *analyzer.NodeStats, opts Options) {
	node := stats.Node

	if node.Indent > 0 {
		b.WriteString(strings.Repeat("      ", node.Indent-1))
		b.WriteString("  ->  ")
	}
	if opts.Icons {
		b.WriteString(category.Icon(node.NodeType))
		b.WriteByte(' ')
	}
	b.WriteString(markup.Wrap(node.NodeType, category.Classify(node.NodeType).Color()))
	if node.Target != "" {
		b.WriteByte(' ')
		b.WriteString(node.Target)
	}

	if cost := node.Cost; cost != nil {
		span := fmt.Sprintf("%.2f..%.2f", cost.Startup, cost.Total)
		if opts.Heat && stats.Cost != nil {
			span = markup.Wrap(span, markup.Heat(stats.Cost.Score))
		}
		fmt.Fprintf(b, "  (cost=%s rows=%d width=%d)", span, cost.Rows, cost.Width)
	}
	if actual := node.Actual; actual != nil {
		if actual.Timing != nil {
			span := fmt.Sprintf("%.3f..%.3f", actual.Timing.Startup, actual.Timing.Total)
			if opts.Heat && stats.Time != nil {
				span = markup.Wrap(span, markup.Heat(stats.Time.Score))
			}
			fmt.Fprintf(b, " (actual time=%s rows=%d loops=%d)", span, actual.Rows, actual.Loops)
		} else {
			fmt.Fprintf(b, " (actual rows=%d loops=%d)", actual.Rows, actual.Loops)
		}
	}
	b.WriteByte('\n')

	for _, meta := range node.Metadata {
		b.WriteString(strings.Repeat("      ", node.Indent))
		b.WriteString("  ")
		b.WriteString(meta)
		b.WriteByte('\n')
	}
	for _, child := range stats.Children {
		writeNode(b, child, opts)
	}
}
