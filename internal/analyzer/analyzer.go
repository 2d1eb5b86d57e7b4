package analyzer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pgprism/pgprism/internal/model"
)

// ErrUnknownJoinType reports a join node for which no child-combination rule exists.
var ErrUnknownJoinType = errors.New("analyzer: unknown join type")

// Metric carries a node's own contribution to one measure and its place on
// the plan-wide [0,1] scale.
type Metric struct {
	Self  float64
	Score float64
}

// NodeStats augments a plan node with derived metrics. Cost and Time are nil
// when the underlying node lacks the corresponding figures.
type NodeStats struct {
	Node     *model.PlanNode
	Depth    int
	Cost     *Metric
	Time     *Metric
	Children []*NodeStats
}

// Analysis contains derived metrics for a parsed plan.
type Analysis struct {
	Plan            *model.Plan
	Root            *NodeStats
	NodeCount       int
	HasTiming       bool
	PlanningTimeMs  float64
	ExecutionTimeMs float64
}

// measure extracts one numeric field pair from a node: its value, the weight
// a Nested Loop parent multiplies it by, and whether the pair is present.
type measure func(*model.PlanNode) (value, weight float64, ok bool)

// Analyze derives self cost/time and heat scores for the provided plan.
func Analyze(plan *model.Plan) (*Analysis, error) {
	if plan == nil || plan.Root == nil {
		return nil, fmt.Errorf("analyzer: missing plan")
	}

	root, err := buildStats(plan.Root, 0)
	if err != nil {
		return nil, err
	}

	allNodes := flatten(root)
	normalize(allNodes, func(n *NodeStats) *Metric { return n.Cost })
	normalize(allNodes, func(n *NodeStats) *Metric { return n.Time })

	analysis := &Analysis{
		Plan:            plan,
		Root:            root,
		NodeCount:       len(allNodes),
		PlanningTimeMs:  tailTime(plan.Tail, "Planning Time:"),
		ExecutionTimeMs: tailTime(plan.Tail, "Execution Time:"),
	}
	for _, n := range allNodes {
		if n.Time != nil {
			analysis.HasTiming = true
			break
		}
	}

	return analysis, nil
}

func buildStats(node *model.PlanNode, depth int) (*NodeStats, error) {
	stats := &NodeStats{Node: node, Depth: depth}
	for _, childNode := range node.Children {
		child, err := buildStats(childNode, depth+1)
		if err != nil {
			return nil, err
		}
		stats.Children = append(stats.Children, child)
	}

	var err error
	if stats.Cost, err = selfValue(node, costValue); err != nil {
		return nil, err
	}
	if stats.Time, err = selfValue(node, timeValue); err != nil {
		return nil, err
	}

	return stats, nil
}

func costValue(node *model.PlanNode) (float64, float64, bool) {
	if node.Cost == nil {
		return 0, 0, false
	}
	return node.Cost.Total, float64(node.Cost.Rows), true
}

func timeValue(node *model.PlanNode) (float64, float64, bool) {
	if node.Actual == nil || node.Actual.Timing == nil {
		return 0, 0, false
	}
	return node.Actual.Timing.Total, float64(node.Actual.Loops), true
}

// selfValue computes the node's own share of a measure: its value minus the
// combined contribution of its direct children. Nil when the node does not
// carry the measure.
func selfValue(node *model.PlanNode, value measure) (*Metric, error) {
	v, _, ok := value(node)
	if !ok {
		return nil, nil
	}
	combined, err := childContribution(node, value)
	if err != nil {
		return nil, err
	}
	return &Metric{Self: v - combined}, nil
}

// childContribution combines the direct children's values under the rule the
// node's join strategy implies. Children without the measure are skipped; if
// none carry it the contribution is zero.
func childContribution(node *model.PlanNode, value measure) (float64, error) {
	switch {
	case strings.Contains(node.NodeType, "Nested Loop"):
		// The inner side is paid once per outer-row iteration.
		var sum float64
		for _, child := range node.Children {
			v, w, ok := value(child)
			if !ok {
				continue
			}
			sum += v * w
		}
		return sum, nil
	case strings.HasSuffix(node.NodeType, "Join"):
		switch {
		case strings.Contains(node.NodeType, "Merge"):
			// Merge inputs are pipelined; the slower side bounds the total.
			var most float64
			for _, child := range node.Children {
				v, _, ok := value(child)
				if !ok {
					continue
				}
				most = max(most, v)
			}
			return most, nil
		case strings.Contains(node.NodeType, "Hash"):
			return sumChildren(node, value), nil
		default:
			return 0, fmt.Errorf("node %q: %w", node.NodeType, ErrUnknownJoinType)
		}
	default:
		return sumChildren(node, value), nil
	}
}

func sumChildren(node *model.PlanNode, value measure) float64 {
	var sum float64
	for _, child := range node.Children {
		v, _, ok := value(child)
		if !ok {
			continue
		}
		sum += v
	}
	return sum
}

// normalize maps each present self value onto [0,1] across the whole tree.
// A degenerate single-value spread scores 1.0 everywhere.
func normalize(nodes []*NodeStats, metric func(*NodeStats) *Metric) {
	var present []*Metric
	for _, n := range nodes {
		if m := metric(n); m != nil {
			present = append(present, m)
		}
	}
	if len(present) == 0 {
		return
	}

	lo, hi := present[0].Self, present[0].Self
	for _, m := range present[1:] {
		lo = min(lo, m.Self)
		hi = max(hi, m.Self)
	}
	for _, m := range present {
		if hi == lo {
			m.Score = 1.0
			continue
		}
		m.Score = (m.Self - lo) / (hi - lo)
	}
}

func flatten(root *NodeStats) []*NodeStats {
	var out []*NodeStats
	var walk func(*NodeStats)
	walk = func(n *NodeStats) {
		out = append(out, n)
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

var tailTimePattern = regexp.MustCompile(`([\d.]+) ms$`)

// tailTime recovers a "<label> <n> ms" figure from the trailing summary lines.
func tailTime(tail []string, label string) float64 {
	for _, line := range tail {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, label) {
			continue
		}
		if m := tailTimePattern.FindStringSubmatch(line); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				return f
			}
		}
	}
	return 0
}
