package parser

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pgprism/pgprism/internal/model"
)

// Sentinel errors for the ways plan text can be rejected.
var (
	ErrMissingInput  = errors.New("parser: missing input")
	ErrNotPlanLine   = errors.New("parser: not a plan line")
	ErrInvalidIndent = errors.New("parser: invalid indent")
	ErrEmptyNodeType = errors.New("parser: empty node type")
)

// indentUnit is the width of one "  ->  " arrow marker.
const indentUnit = 6

var (
	planLinePattern = regexp.MustCompile(`^(\s+->\s+)?[A-Z]`)
	costPattern     = regexp.MustCompile(`\(cost=([\d.]+)\.\.([\d.]+) rows=(\d+) width=(\d+)\)`)
	actualPattern   = regexp.MustCompile(`\(actual(?: time=([\d.]+)\.\.([\d.]+))? rows=(\d+) loops=(\d+)\)`)
)

// Parse reads the textual output of EXPLAIN (ANALYZE, BUFFERS) from r and
// builds the plan tree.
func Parse(r io.Reader) (*model.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan text: %w", err)
	}
	return ParseText(string(data))
}

// ParseText parses a complete plan text. The input may carry a psql
// header/border block, which is stripped before a second parse attempt.
func ParseText(text string) (*model.Plan, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrMissingInput
	}

	root, err := parsePlanLine(lines[0])
	if err != nil {
		lines = stripHeaderAndBorder(lines)
		if root, err = parsePlanLine(lines[0]); err != nil {
			return nil, err
		}
	}

	plan := &model.Plan{Root: root}
	stack := []*model.PlanNode{root}

	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, " ") || len(plan.Tail) > 0 {
			// The psql row-count footer must not survive into the tail.
			if strings.HasSuffix(line, " rows)") {
				continue
			}
			plan.Tail = append(plan.Tail, line)
			continue
		}
		if planLinePattern.MatchString(line) {
			node, err := parsePlanLine(line)
			if err != nil {
				return nil, err
			}
			top := stack[len(stack)-1]
			if node.Indent > top.Indent {
				top.Children = append(top.Children, node)
				stack = append(stack, node)
				continue
			}
			for len(stack) > 1 && node.Indent <= stack[len(stack)-1].Indent {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)
			continue
		}
		top := stack[len(stack)-1]
		top.Metadata = append(top.Metadata, strings.TrimSpace(line))
	}

	return plan, nil
}

// parsePlanLine extracts indent, node type, target and the optional cost and
// actual tokens from a single plan-node line.
func parsePlanLine(line string) (*model.PlanNode, error) {
	m := planLinePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, fmt.Errorf("line %q: %w", line, ErrNotPlanLine)
	}

	var prefix string
	if m[2] >= 0 {
		prefix = line[m[2]:m[3]]
	}
	rest := line[len(prefix):]
	if len(prefix)%indentUnit != 0 {
		return nil, fmt.Errorf("line %q: prefix width %d: %w", line, len(prefix), ErrInvalidIndent)
	}
	node := &model.PlanNode{Indent: len(prefix) / indentUnit}

	if cm := costPattern.FindStringSubmatchIndex(rest); cm != nil {
		node.Cost = &model.Costs{
			Startup: asFloat(rest[cm[2]:cm[3]]),
			Total:   asFloat(rest[cm[4]:cm[5]]),
			Rows:    asInt64(rest[cm[6]:cm[7]]),
			Width:   asInt64(rest[cm[8]:cm[9]]),
		}
		rest = rest[:cm[0]] + rest[cm[1]:]
	}
	if am := actualPattern.FindStringSubmatchIndex(rest); am != nil {
		actual := &model.Actuals{
			Rows:  asInt64(rest[am[6]:am[7]]),
			Loops: asInt64(rest[am[8]:am[9]]),
		}
		if am[2] >= 0 {
			actual.Timing = &model.Timing{
				Startup: asFloat(rest[am[2]:am[3]]),
				Total:   asFloat(rest[am[4]:am[5]]),
			}
		}
		node.Actual = actual
		rest = rest[:am[0]] + rest[am[1]:]
	}

	nodeType := rest
	nodeType = strings.SplitN(nodeType, " using ", 2)[0]
	nodeType = strings.SplitN(nodeType, " on ", 2)[0]
	nodeType = strings.TrimSpace(nodeType)
	if nodeType == "" {
		return nil, fmt.Errorf("line %q: %w", line, ErrEmptyNodeType)
	}
	node.NodeType = nodeType
	node.Target = strings.TrimSpace(rest[len(nodeType):])

	return node, nil
}

// stripHeaderAndBorder removes the column-header block psql prepends when a
// plan is piped through it: everything up to the first all-dash border line
// goes, and the remaining lines lose the indentation psql added. Without a
// border the input is returned unchanged.
func stripHeaderAndBorder(lines []string) []string {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.Trim(trimmed, "-") != "" {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			indented := len(lines[j]) - len(strings.TrimLeft(lines[j], " \t"))
			out := make([]string, 0, len(lines)-j)
			for _, l := range lines[j:] {
				if len(l) >= indented {
					l = l[indented:]
				} else {
					l = ""
				}
				out = append(out, l)
			}
			return out
		}
		return lines
	}
	return lines
}

func asFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func asInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}
