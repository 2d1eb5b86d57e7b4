package html

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/category"
	"github.com/pgprism/pgprism/internal/insight"
	"github.com/pgprism/pgprism/internal/model"
)

// Options configures the HTML renderer.
type Options struct {
	Title         string
	IncludeStyles bool
}

// Render writes an HTML report containing a plan summary and annotated tree.
func Render(w io.Writer, analysis *analyzer.Analysis, opts Options) error {
	if w == nil {
		return fmt.Errorf("html render: writer is nil")
	}
	if analysis == nil || analysis.Root == nil {
		return fmt.Errorf("html render: empty analysis")
	}
	if opts.Title == "" {
		opts.Title = "pgprism report"
	}
	data := buildTemplateData(analysis, opts)
	tpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("html render: compile template: %w", err)
	}
	if err := tpl.Execute(w, data); err != nil {
		return fmt.Errorf("html render: execute template: %w", err)
	}
	return nil
}

type templateData struct {
	Title         string
	IncludeStyles bool
	Summary       summaryView
	Root          *nodeView
	Hottest       []listView
	Insights      []insightView
}

type summaryView struct {
	ExecutionTime string
	PlanningTime  string
	NodeCount     int
	Findings      int
}

type listView struct {
	Label string
	Self  string
	Score string
}

type insightView struct {
	Icon     string
	Severity string
	Text     string
}

type nodeView struct {
	Label    string
	Group    string
	Metrics  string
	Rows     string
	Heat     float64
	BarWidth float64
	Metadata []string
	Children []*nodeView
}

func buildTemplateData(analysis *analyzer.Analysis, opts Options) templateData {
	messages := insight.Messages(analysis)
	insights := make([]insightView, 0, len(messages))
	for _, msg := range messages {
		insights = append(insights, insightView{
			Icon:     severityIcon(msg.Severity),
			Severity: string(msg.Severity),
			Text:     msg.Text,
		})
	}

	return templateData{
		Title:         opts.Title,
		IncludeStyles: opts.IncludeStyles,
		Summary: summaryView{
			ExecutionTime: formatMs(analysis.ExecutionTimeMs),
			PlanningTime:  formatMs(analysis.PlanningTimeMs),
			NodeCount:     analysis.NodeCount,
			Findings:      len(messages),
		},
		Root:     buildNodeView(analysis.Root),
		Hottest:  hottestNodes(analysis, 5),
		Insights: insights,
	}
}

func buildNodeView(stats *analyzer.NodeStats) *nodeView {
	node := stats.Node
	view := &nodeView{
		Label:    category.Icon(node.NodeType) + " " + nodeLabel(node),
		Group:    category.Classify(node.NodeType).String(),
		Metrics:  nodeMetrics(stats),
		Rows:     formatRows(node),
		Heat:     nodeHeat(stats),
		Metadata: append([]string(nil), node.Metadata...),
	}
	view.BarWidth = view.Heat * 100
	for _, child := range stats.Children {
		view.Children = append(view.Children, buildNodeView(child))
	}
	return view
}

// hottestNodes ranks every node by its self metric, preferring time over cost.
func hottestNodes(analysis *analyzer.Analysis, limit int) []listView {
	var all []*analyzer.NodeStats
	var walk func(*analyzer.NodeStats)
	walk = func(stats *analyzer.NodeStats) {
		if stats == nil {
			return
		}
		all = append(all, stats)
		for _, child := range stats.Children {
			walk(child)
		}
	}
	walk(analysis.Root)

	metric := func(stats *analyzer.NodeStats) *analyzer.Metric {
		if analysis.HasTiming {
			return stats.Time
		}
		return stats.Cost
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := metric(all[i]), metric(all[j])
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Self > b.Self
		}
	})

	views := make([]listView, 0, limit)
	for _, stats := range all {
		if len(views) == limit {
			break
		}
		m := metric(stats)
		if m == nil {
			continue
		}
		self := fmt.Sprintf("cost %.2f", m.Self)
		if analysis.HasTiming {
			self = fmt.Sprintf("%.3f ms", m.Self)
		}
		views = append(views, listView{
			Label: nodeLabel(stats.Node),
			Self:  self,
			Score: fmt.Sprintf("%.2f", m.Score),
		})
	}
	return views
}

func nodeLabel(node *model.PlanNode) string {
	if node.Target == "" {
		return node.NodeType
	}
	return node.NodeType + " " + node.Target
}

func nodeMetrics(stats *analyzer.NodeStats) string {
	var parts []string
	if stats.Time != nil {
		parts = append(parts, fmt.Sprintf("self %.3f ms", stats.Time.Self))
	}
	if stats.Cost != nil {
		parts = append(parts, fmt.Sprintf("self cost %.2f", stats.Cost.Self))
	}
	return strings.Join(parts, " · ")
}

func nodeHeat(stats *analyzer.NodeStats) float64 {
	switch {
	case stats.Time != nil:
		return stats.Time.Score
	case stats.Cost != nil:
		return stats.Cost.Score
	default:
		return 0
	}
}

func formatRows(node *model.PlanNode) string {
	if node.Cost == nil || node.Actual == nil {
		return ""
	}
	actual := node.Actual.Rows * node.Actual.Loops
	if node.Cost.Rows > 0 && actual > 0 {
		factor := float64(actual) / float64(node.Cost.Rows)
		return fmt.Sprintf("rows %d / %d (x%.2f)", actual, node.Cost.Rows, factor)
	}
	return fmt.Sprintf("rows %d / %d", actual, node.Cost.Rows)
}

func formatMs(value float64) string {
	if value <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.3f ms", value)
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

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>{{.Title}}</title>
	{{- if .IncludeStyles }}
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; margin: 0; padding: 0; background: #f7f7f8; color: #202124; }
		main { max-width: 960px; margin: 0 auto; padding: 32px 24px 48px; }
		header { background: #212a3b; color: #f7f7f8; padding: 32px 24px; }
		header h1 { margin: 0 0 8px; font-size: 28px; }
		header p { margin: 4px 0; opacity: 0.8; }
		section { margin-top: 32px; }
		section h2 { margin-bottom: 12px; font-size: 20px; }
		.summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 12px; }
		.summary-tile { background: #fff; border-radius: 10px; padding: 16px; box-shadow: 0 6px 18px rgba(13,28,39,0.12); }
		.summary-tile strong { display: block; font-size: 14px; text-transform: uppercase; letter-spacing: 0.04em; color: #5b7083; margin-bottom: 6px; }
		.summary-tile span { font-size: 18px; font-weight: 600; }
		.list-card { background: #fff; border-radius: 12px; padding: 16px; box-shadow: 0 4px 12px rgba(13,28,39,0.10); }
		.list-card header { display: flex; justify-content: space-between; align-items: baseline; background: none; color: inherit; padding: 0; }
		.list-card header h3 { margin: 0; font-size: 16px; color: #253043; }
		.list-card header span { font-size: 13px; color: #5b7083; }
		.list-card ul { list-style: none; padding: 0; margin: 12px 0 0; }
		.list-card li { display: grid; grid-template-columns: 1fr auto auto; gap: 12px; font-size: 14px; padding: 8px 0; border-bottom: 1px solid rgba(91,112,131,0.16); }
		.list-card li:last-child { border-bottom: none; }
		.plan-tree { list-style: none; margin: 0; padding: 0; }
		.plan-tree > li { margin-bottom: 12px; }
		.node-card { background: #fff; border-radius: 12px; margin-bottom: 12px; position: relative; padding: 16px 18px 14px 18px; box-shadow: 0 8px 20px rgba(16,37,58,0.12); border-left: 6px solid rgba(33,42,59,0.1); }
		.node-card::after { content: ""; position: absolute; inset: 0; border-radius: inherit; background: linear-gradient(90deg, rgba(244,71,71,var(--heat)) 0%, rgba(244,71,71,0) 72%); opacity: 0.35; pointer-events: none; }
		.node-card.group-data-retrieval { border-left-color: #3178c6; }
		.node-card.group-join { border-left-color: #8e44ad; }
		.node-card.group-aggregation { border-left-color: #27ae60; }
		.node-card.group-modification { border-left-color: #f44747; }
		.node-card.group-utility { border-left-color: rgba(33,42,59,0.35); }
		.node-header { position: relative; z-index: 1; display: flex; justify-content: space-between; gap: 12px; align-items: baseline; }
		.node-label { font-weight: 600; font-size: 15px; }
		.node-metrics { font-size: 13px; color: #5b7083; white-space: nowrap; }
		.node-bar { position: relative; z-index: 1; margin-top: 10px; background: rgba(33,42,59,0.08); border-radius: 999px; height: 8px; overflow: hidden; }
		.node-bar span { display: block; height: 100%; border-radius: inherit; background: linear-gradient(90deg, #27ae60 0%, #faae32 55%, #f44747 100%); width: calc(var(--width) * 1%); }
		.node-meta { position: relative; z-index: 1; margin-top: 10px; font-size: 13px; color: #364a63; display: flex; flex-wrap: wrap; gap: 12px 18px; }
		.node-children { margin-left: 24px; border-left: 1px dashed rgba(33,42,59,0.15); padding-left: 20px; }
		.insight-list { list-style: none; margin: 0; padding: 0; display: flex; flex-direction: column; gap: 10px; }
		.insight-list li { background: #fff; border-radius: 12px; padding: 14px 16px; box-shadow: 0 4px 12px rgba(13,28,39,0.10); font-size: 14px; color: #253043; display: flex; align-items: center; gap: 10px; }
		.insight-list li span.icon { font-size: 18px; }
		.insight-list li.severity-critical { border-left: 4px solid #f44747; }
		.insight-list li.severity-warning { border-left: 4px solid #faae32; }
		.insight-list li.severity-info { border-left: 4px solid rgba(33,42,59,0.15); }
		@media (max-width: 640px) {
			main { padding: 24px 16px 32px; }
			.list-card li { grid-template-columns: 1fr auto; }
		}
	</style>
	{{- end }}
</head>
<body>
	<header>
		<h1>{{.Title}}</h1>
		<p>Execution {{.Summary.ExecutionTime}} · Planning {{.Summary.PlanningTime}}</p>
		<p>Nodes {{.Summary.NodeCount}} · Findings {{.Summary.Findings}}</p>
	</header>
	<main>
		<section>
			<h2>Highlights</h2>
			<div class="summary-grid">
				<div class="summary-tile">
					<strong>Execution time</strong>
					<span>{{.Summary.ExecutionTime}}</span>
				</div>
				<div class="summary-tile">
					<strong>Planning time</strong>
					<span>{{.Summary.PlanningTime}}</span>
				</div>
				<div class="summary-tile">
					<strong>Plan nodes</strong>
					<span>{{.Summary.NodeCount}}</span>
				</div>
				<div class="summary-tile">
					<strong>Findings</strong>
					<span>{{.Summary.Findings}}</span>
				</div>
			</div>
		</section>

		{{- if .Insights }}
		<section>
			<h2>Insights</h2>
			<ul class="insight-list">
				{{- range .Insights }}
				<li class="severity-{{.Severity}}"><span class="icon">{{.Icon}}</span><span class="insight-text">{{.Text}}</span></li>
				{{- end }}
			</ul>
		</section>
		{{- end }}

		{{- if .Hottest }}
		<section>
			<h2>Signals</h2>
			<div class="list-card">
				<header>
					<h3>Hottest nodes</h3>
					<span>Ranked by self time, or self cost without timing</span>
				</header>
				<ul>
					{{- range .Hottest }}
					<li>
						<span>{{.Label}}</span>
						<span>{{.Self}}</span>
						<span>score {{.Score}}</span>
					</li>
					{{- end }}
				</ul>
			</div>
		</section>
		{{- end }}

		<section>
			<h2>Plan Tree</h2>
			<ul class="plan-tree">
				{{ template "node" .Root }}
			</ul>
		</section>
	</main>

	{{ define "node" }}
	<li>
		<div class="node-card group-{{.Group}}" style="--heat: {{printf "%.3f" .Heat}};">
			<div class="node-header">
				<span class="node-label">{{.Label}}</span>
				{{- if .Metrics }}
				<span class="node-metrics">{{.Metrics}}</span>
				{{- end }}
			</div>
			<div class="node-bar"><span style="--width: {{printf "%.2f" .BarWidth}};"></span></div>
			{{- if or .Rows .Metadata }}
			<div class="node-meta">
				{{- if .Rows }}<span>{{.Rows}}</span>{{- end }}
				{{- range .Metadata }}<span>{{.}}</span>{{- end }}
			</div>
			{{- end }}
		</div>
		{{- if .Children }}
		<ul class="node-children">
			{{- range .Children }}
				{{ template "node" . }}
			{{- end }}
		</ul>
		{{- end }}
	</li>
	{{ end }}
</body>
</html>
`
