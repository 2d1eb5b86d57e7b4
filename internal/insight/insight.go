package insight

import (
	"fmt"
	"sort"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/model"
)

// Severity expresses the urgency of an insight message.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Message represents an actionable observation about a plan.
type Message struct {
	Severity Severity
	Text     string
}

// Messages derives findings from an analysis, most severe first.
func Messages(analysis *analyzer.Analysis) []Message {
	if analysis == nil || analysis.Root == nil {
		return nil
	}
	var out []Message

	if msg := hotSpotMessage(analysis); msg != nil {
		out = append(out, *msg)
	}
	if msg := misestimateMessage(analysis); msg != nil {
		out = append(out, *msg)
	}
	if !analysis.HasTiming {
		out = append(out, Message{
			Severity: SeverityInfo,
			Text:     "No timing data; run EXPLAIN (ANALYZE, BUFFERS) to capture per-node times",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return severityRank(out[i].Severity) < severityRank(out[j].Severity)
	})
	return out
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// hotSpotMessage names the node doing the most own work: by self time when
// the plan was timed, by self cost otherwise.
func hotSpotMessage(analysis *analyzer.Analysis) *Message {
	if !analysis.HasTiming {
		hot := pickNode(analysis.Root, func(n *analyzer.NodeStats) *analyzer.Metric { return n.Cost })
		if hot == nil {
			return nil
		}
		text := fmt.Sprintf("Costliest node: %s with self cost %.2f", nodeLabel(hot.Node), hot.Cost.Self)
		return &Message{Severity: SeverityInfo, Text: text}
	}

	hot := pickNode(analysis.Root, func(n *analyzer.NodeStats) *analyzer.Metric { return n.Time })
	if hot == nil {
		return nil
	}

	total := analysis.ExecutionTimeMs
	if total <= 0 {
		total = sumSelfTimes(analysis.Root)
	}
	var share float64
	if total > 0 {
		share = hot.Time.Self / total
	}

	severity := SeverityInfo
	switch {
	case share >= 0.5:
		severity = SeverityCritical
	case share >= 0.25:
		severity = SeverityWarning
	}
	text := fmt.Sprintf("Hot spot: %s with self time %.3f ms (%.1f%% of execution)",
		nodeLabel(hot.Node), hot.Time.Self, share*100)
	return &Message{Severity: severity, Text: text}
}

// misestimateMessage reports the worst row-count drift between the planner's
// estimate and what actually came back.
func misestimateMessage(analysis *analyzer.Analysis) *Message {
	const threshold = 10.0

	var worst *analyzer.NodeStats
	var worstRatio float64
	walk(analysis.Root, func(n *analyzer.NodeStats) {
		node := n.Node
		if node.Cost == nil || node.Actual == nil {
			return
		}
		estimated := float64(node.Cost.Rows)
		actual := float64(node.Actual.Rows) * float64(node.Actual.Loops)
		if estimated <= 0 || actual <= 0 {
			return
		}
		ratio := max(actual/estimated, estimated/actual)
		if ratio > worstRatio {
			worst, worstRatio = n, ratio
		}
	})
	if worst == nil || worstRatio < threshold {
		return nil
	}

	node := worst.Node
	text := fmt.Sprintf("Row estimate off by %.0fx: %s expected %d, saw %d",
		worstRatio, nodeLabel(node), node.Cost.Rows, node.Actual.Rows*node.Actual.Loops)
	return &Message{Severity: SeverityWarning, Text: text}
}

func pickNode(root *analyzer.NodeStats, metric func(*analyzer.NodeStats) *analyzer.Metric) *analyzer.NodeStats {
	var best *analyzer.NodeStats
	walk(root, func(n *analyzer.NodeStats) {
		m := metric(n)
		if m == nil {
			return
		}
		if best == nil || m.Self > metric(best).Self {
			best = n
		}
	})
	return best
}

func sumSelfTimes(root *analyzer.NodeStats) float64 {
	var sum float64
	walk(root, func(n *analyzer.NodeStats) {
		if n.Time != nil {
			sum += n.Time.Self
		}
	})
	return sum
}

func walk(node *analyzer.NodeStats, fn func(*analyzer.NodeStats)) {
	if node == nil {
		return
	}
	fn(node)
	for _, child := range node.Children {
		walk(child, fn)
	}
}

func nodeLabel(node *model.PlanNode) string {
	if node.Target == "" {
		return node.NodeType
	}
	return node.NodeType + " " + node.Target
}
