package diff

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/config"
	"github.com/pgprism/pgprism/internal/model"
)

// Options configures the diff sensitivity.
type Options struct {
	MinSelfDelta     float64
	MinPercentChange float64
	MaxItems         int
}

// Metric identifies which self metric a report compares.
type Metric string

const (
	MetricTime Metric = "time"
	MetricCost Metric = "cost"
)

// Report summarises the delta between two plan analyses.
type Report struct {
	Metric       Metric           `json:"metric"`
	Verdict      string           `json:"verdict"`
	Summary      SummaryDiff      `json:"summary"`
	Regressions  []Entry          `json:"regressions"`
	Improvements []Entry          `json:"improvements"`
	Insights     []insightMessage `json:"insights"`
	Options      Options          `json:"-"`
}

// SummaryDiff covers high-level execution differences.
type SummaryDiff struct {
	BaseExecutionMs   float64 `json:"base_execution_ms"`
	TargetExecutionMs float64 `json:"target_execution_ms"`
	DeltaExecutionMs  float64 `json:"delta_execution_ms"`
	PercentExecution  float64 `json:"percent_execution"`
	BasePlanningMs    float64 `json:"base_planning_ms"`
	TargetPlanningMs  float64 `json:"target_planning_ms"`
	DeltaPlanningMs   float64 `json:"delta_planning_ms"`
	PercentPlanning   float64 `json:"percent_planning"`
}

// Entry captures the delta for the nodes sharing a signature.
type Entry struct {
	Signature     string  `json:"signature"`
	BaseSelf      float64 `json:"base_self"`
	TargetSelf    float64 `json:"target_self"`
	DeltaSelf     float64 `json:"delta_self"`
	PercentChange float64 `json:"percent_change"`
	BaseCount     int     `json:"base_count"`
	TargetCount   int     `json:"target_count"`
}

type insightMessage struct {
	Severity string `json:"severity"`
	Icon     string `json:"icon"`
	Message  string `json:"message"`
}

// Compare builds a diff report for two plan analyses. Nodes are matched by
// signature, and self times are compared when both plans carry timing data,
// self costs otherwise.
func Compare(base, target *analyzer.Analysis, opts Options) (*Report, error) {
	if base == nil || base.Root == nil {
		return nil, fmt.Errorf("diff: base analysis missing")
	}
	if target == nil || target.Root == nil {
		return nil, fmt.Errorf("diff: target analysis missing")
	}

	opts = applyDefaults(opts)

	metric := MetricCost
	if base.HasTiming && target.HasTiming {
		metric = MetricTime
	}

	baseAgg := aggregate(base.Root, metric)
	targetAgg := aggregate(target.Root, metric)

	signatures := unionKeys(baseAgg, targetAgg)
	var regressions, improvements []Entry

	for _, sig := range signatures {
		entry := buildEntry(sig, baseAgg[sig], targetAgg[sig])

		if passesRegression(entry, opts) {
			regressions = append(regressions, entry)
		} else if passesImprovement(entry, opts) {
			improvements = append(improvements, entry)
		}
	}

	sort.Slice(regressions, func(i, j int) bool {
		return regressions[i].DeltaSelf > regressions[j].DeltaSelf
	})
	sort.Slice(improvements, func(i, j int) bool {
		return improvements[i].DeltaSelf < improvements[j].DeltaSelf
	})

	if opts.MaxItems > 0 {
		if len(regressions) > opts.MaxItems {
			regressions = regressions[:opts.MaxItems]
		}
		if len(improvements) > opts.MaxItems {
			improvements = improvements[:opts.MaxItems]
		}
	}

	report := &Report{
		Metric: metric,
		Summary: SummaryDiff{
			BaseExecutionMs:   base.ExecutionTimeMs,
			TargetExecutionMs: target.ExecutionTimeMs,
			DeltaExecutionMs:  target.ExecutionTimeMs - base.ExecutionTimeMs,
			PercentExecution:  percentChange(base.ExecutionTimeMs, target.ExecutionTimeMs),
			BasePlanningMs:    base.PlanningTimeMs,
			TargetPlanningMs:  target.PlanningTimeMs,
			DeltaPlanningMs:   target.PlanningTimeMs - base.PlanningTimeMs,
			PercentPlanning:   percentChange(base.PlanningTimeMs, target.PlanningTimeMs),
		},
		Regressions:  regressions,
		Improvements: improvements,
		Options:      opts,
	}
	report.Verdict = verdict(metric, report.Summary.DeltaExecutionMs, totalSelf(targetAgg)-totalSelf(baseAgg))
	report.Insights = synthesizeInsights(report)
	return report, nil
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	unit := r.unit()
	var b strings.Builder
	b.WriteString("# pgprism diff\n\n")
	b.WriteString("## Summary\n")
	_, _ = fmt.Fprintf(&b, "- Execution: %.3f ms → %.3f ms (%+.3f ms, %+.1f%%)\n",
		r.Summary.BaseExecutionMs, r.Summary.TargetExecutionMs,
		r.Summary.DeltaExecutionMs, r.Summary.PercentExecution)
	_, _ = fmt.Fprintf(&b, "- Planning: %.3f ms → %.3f ms (%+.3f ms, %+.1f%%)\n",
		r.Summary.BasePlanningMs, r.Summary.TargetPlanningMs,
		r.Summary.DeltaPlanningMs, r.Summary.PercentPlanning)
	if r.Metric == MetricCost {
		b.WriteString("- Metric: self cost (timing data missing on one side)\n")
	} else {
		b.WriteString("- Metric: self time\n")
	}
	_, _ = fmt.Fprintf(&b, "- Verdict: %s\n", r.Verdict)
	b.WriteString("\n")

	b.WriteString("### Insights\n")
	if len(r.Insights) == 0 {
		b.WriteString("- No notable plan changes detected\n")
	} else {
		for _, msg := range r.Insights {
			_, _ = fmt.Fprintf(&b, "- %s %s\n", msg.Icon, msg.Message)
		}
	}
	b.WriteString("\n")

	b.WriteString("### Regressions\n")
	writeEntryTable(&b, r.Regressions, unit)
	b.WriteString("\n### Improvements\n")
	writeEntryTable(&b, r.Improvements, unit)
	return b.String()
}

// JSON marshals the diff report into an indented JSON document.
func (r *Report) JSON() ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("nil report")
	}
	type alias Report
	return json.MarshalIndent((*alias)(r), "", "  ")
}

func (r *Report) unit() string {
	if r.Metric == MetricCost {
		return "cost"
	}
	return "ms"
}

func writeEntryTable(b *strings.Builder, entries []Entry, unit string) {
	if len(entries) == 0 {
		b.WriteString("- None above threshold\n")
		return
	}
	_, _ = fmt.Fprintf(b, "| Operator | Base self (%s) | Target self (%s) | Δ self (%s) | Δ %% | Nodes |\n", unit, unit, unit)
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	for _, entry := range entries {
		_, _ = fmt.Fprintf(b, "| %s | %.2f | %.2f | %+.2f | %+.1f%% | %d → %d |\n",
			entry.Signature,
			entry.BaseSelf,
			entry.TargetSelf,
			entry.DeltaSelf,
			entry.PercentChange,
			entry.BaseCount,
			entry.TargetCount)
	}
}

func synthesizeInsights(r *Report) []insightMessage {
	if r == nil {
		return nil
	}
	const maxItems = 3
	unit := r.unit()
	var insights []insightMessage

	for i, entry := range r.Regressions {
		if i >= maxItems {
			break
		}
		icon, level := "⚠️", "warning"
		if entry.PercentChange >= 100 {
			icon, level = "🔥", "critical"
		}
		insights = append(insights, insightMessage{
			Severity: level,
			Icon:     icon,
			Message:  fmt.Sprintf("%s self %+.2f %s (%+.1f%%)", entry.Signature, entry.DeltaSelf, unit, entry.PercentChange),
		})
	}

	for i, entry := range r.Improvements {
		if i >= maxItems {
			break
		}
		insights = append(insights, insightMessage{
			Severity: "improvement",
			Icon:     "✅",
			Message:  fmt.Sprintf("%s self %+.2f %s (%+.1f%%)", entry.Signature, entry.DeltaSelf, unit, entry.PercentChange),
		})
	}

	return insights
}

type aggregated struct {
	Self  float64
	Count int
}

func aggregate(root *analyzer.NodeStats, metric Metric) map[string]aggregated {
	result := map[string]aggregated{}
	var walk func(*analyzer.NodeStats)
	walk = func(stats *analyzer.NodeStats) {
		if stats == nil {
			return
		}
		sig := signature(stats.Node)
		entry := result[sig]
		m := stats.Cost
		if metric == MetricTime {
			m = stats.Time
		}
		if m != nil {
			entry.Self += m.Self
		}
		entry.Count++
		result[sig] = entry
		for _, child := range stats.Children {
			walk(child)
		}
	}
	walk(root)
	return result
}

func signature(node *model.PlanNode) string {
	if node.Target == "" {
		return node.NodeType
	}
	return node.NodeType + " " + node.Target
}

func totalSelf(agg map[string]aggregated) float64 {
	var total float64
	for _, entry := range agg {
		total += entry.Self
	}
	return total
}

// verdict judges the plans by total execution time, or by total self cost
// when timing is missing on either side.
func verdict(metric Metric, execDeltaMs, selfDelta float64) string {
	delta := execDeltaMs
	if metric == MetricCost {
		delta = selfDelta
	}
	const eps = 1e-6
	switch {
	case delta < -eps:
		return "improved"
	case delta > eps:
		return "regressed"
	default:
		return "unchanged"
	}
}

func unionKeys(base, target map[string]aggregated) []string {
	seen := map[string]struct{}{}
	for k := range base {
		seen[k] = struct{}{}
	}
	for k := range target {
		seen[k] = struct{}{}
	}
	all := make([]string, 0, len(seen))
	for k := range seen {
		all = append(all, k)
	}
	sort.Strings(all)
	return all
}

func buildEntry(sig string, base, target aggregated) Entry {
	return Entry{
		Signature:     sig,
		BaseSelf:      base.Self,
		TargetSelf:    target.Self,
		DeltaSelf:     target.Self - base.Self,
		PercentChange: percentChange(base.Self, target.Self),
		BaseCount:     base.Count,
		TargetCount:   target.Count,
	}
}

func passesRegression(entry Entry, opts Options) bool {
	return entry.DeltaSelf >= opts.MinSelfDelta && entry.PercentChange >= opts.MinPercentChange
}

func passesImprovement(entry Entry, opts Options) bool {
	return entry.DeltaSelf <= -opts.MinSelfDelta && entry.PercentChange <= -opts.MinPercentChange
}

func percentChange(base, target float64) float64 {
	const eps = 1e-9
	if math.Abs(base) <= eps {
		if math.Abs(target) <= eps {
			return 0
		}
		if target > 0 {
			return 100
		}
		return -100
	}
	return (target - base) / base * 100
}

func applyDefaults(opts Options) Options {
	cfg := config.Active().Diff
	if opts.MinSelfDelta <= 0 {
		opts.MinSelfDelta = cfg.MinSelfDelta
	}
	if opts.MinPercentChange <= 0 {
		opts.MinPercentChange = cfg.MinPercentChange
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = cfg.MaxItems
	}
	return opts
}
