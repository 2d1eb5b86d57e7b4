package render_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/parser"
	"github.com/pgprism/pgprism/internal/render"
	"github.com/pgprism/pgprism/internal/render/markup"
	"github.com/pgprism/pgprism/test"
)

func TestPlanRoundTripText(t *testing.T) {
	for _, name := range []string{"simple.txt", "nested.txt", "notiming.txt"} {
		t.Run(name, func(t *testing.T) {
			text := test.LoadSampleText(t, name)
			analysis := test.LoadSampleAnalysis(t, name)

			got := markup.Strip(render.Plan(analysis, render.Options{}))
			if got != text {
				t.Errorf("stripped render differs from input:\n%s", cmp.Diff(text, got))
			}
		})
	}
}

func TestPlanReparse(t *testing.T) {
	plan := test.LoadSamplePlan(t, "nested.txt")
	analysis, err := analyzer.Analyze(plan)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	rendered := markup.Strip(render.Plan(analysis, render.Options{}))
	reparsed, err := parser.ParseText(rendered)
	if err != nil {
		t.Fatalf("reparse rendered output: %v", err)
	}
	if diff := cmp.Diff(plan, reparsed); diff != "" {
		t.Errorf("reparse mismatch (-original +reparsed):\n%s", diff)
	}
}

func TestPlanIconsAndColors(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "simple.txt")
	out := render.Plan(analysis, render.Options{Icons: true})

	if !strings.Contains(out, "📖 [blue]Index Only Scan[/blue] using building_pkey on building b") {
		t.Errorf("missing icon or color span:\n%s", out)
	}
}

func TestPlanHeat(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "nested.txt")
	out := render.Plan(analysis, render.Options{Heat: true})

	// Sort carries the highest self cost and self time, Seq Scan the lowest.
	if !strings.Contains(out, "[#ff0000]23558.04..23989.13[/#ff0000]") {
		t.Errorf("hottest cost range not wrapped red:\n%s", out)
	}
	if !strings.Contains(out, "[#00b300]0.00..819.00[/#00b300]") {
		t.Errorf("coolest cost range not wrapped green:\n%s", out)
	}
	if !strings.Contains(out, "[#ff0000]93.537..102.804[/#ff0000]") {
		t.Errorf("hottest time range not wrapped red:\n%s", out)
	}
}

func TestPlanWithoutTiming(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "notiming.txt")
	out := render.Plan(analysis, render.Options{Heat: true})

	if !strings.Contains(out, "(actual rows=10 loops=1)") {
		t.Errorf("timing-less actual token mangled:\n%s", out)
	}
	if strings.Contains(out, "actual time=") {
		t.Errorf("unexpected timing in output:\n%s", out)
	}
}

func TestPlanTailVerbatim(t *testing.T) {
	analysis := test.LoadSampleAnalysis(t, "nested.txt")
	out := render.Plan(analysis, render.Options{Icons: true, Heat: true})

	for _, line := range []string{
		"Planning:\n",
		"  Buffers: shared hit=303\n",
		"Planning Time: 3.278 ms\n",
		"Execution Time: 129.345 ms\n",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("tail line %q missing from output", strings.TrimSuffix(line, "\n"))
		}
	}
}
