package model

// Costs holds the planner's cost estimate for a node.
type Costs struct {
	Startup float64
	Total   float64
	Rows    int64
	Width   int64
}

// Timing holds measured startup and total elapsed milliseconds.
type Timing struct {
	Startup float64
	Total   float64
}

// Actuals captures runtime measurements reported by ANALYZE.
// Timing is nil when the plan was captured without per-node timing.
type Actuals struct {
	Timing *Timing
	Rows   int64
	Loops  int64
}

// PlanNode captures one operator in the execution plan tree.
type PlanNode struct {
	NodeType string
	// Target is the descriptor after the node type, keeping its
	// leading "using" or "on" keyword. Empty when absent.
	Target   string
	Indent   int
	Cost     *Costs
	Actual   *Actuals
	Metadata []string
	Children []*PlanNode
}

// Plan is a parsed execution plan: the operator tree plus the trailing
// summary lines ("Planning Time: ...", "Execution Time: ...") in input order.
type Plan struct {
	Root *PlanNode
	Tail []string
}
