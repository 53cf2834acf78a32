// Package workflow implements the LogicFlow graph executor described in
// §4.8: a small DAG of start/http/extract/assert nodes executed once per
// invocation by the workflow plugin harness (internal/workflowplugin).
package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Node is one step of a LogicFlowGraph.
type Node struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

// Edge is a data-dependency edge: Source must execute before Target.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// LogicFlowGraph is a JSON-defined DAG of nodes and edges.
type LogicFlowGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// WorkflowDefinition pairs a graph with the engine it should run under.
type WorkflowDefinition struct {
	Key    string
	Graph  LogicFlowGraph
	Engine EngineKind
}

// ExecutionContext carries the mutable state threaded through one run.
type ExecutionContext struct {
	Vars         map[string]string
	LastResponse interface{}
	Logs         []string
	StepResults  map[string]StepResult
}

// NewExecutionContext builds an ExecutionContext seeded from input, whose
// entries are flattened into Vars (string values verbatim, everything else
// stringified via fmt.Sprint, matching §4.8's "non-string values
// stringified" input rule).
func NewExecutionContext(input map[string]interface{}) *ExecutionContext {
	ctx := &ExecutionContext{
		Vars:        make(map[string]string, len(input)),
		StepResults: make(map[string]StepResult),
	}
	for k, v := range input {
		if s, ok := v.(string); ok {
			ctx.Vars[k] = s
			continue
		}
		ctx.Vars[k] = fmt.Sprint(v)
	}
	return ctx
}

func (ctx *ExecutionContext) log(format string, args ...interface{}) {
	ctx.Logs = append(ctx.Logs, fmt.Sprintf(format, args...))
}

// StepResult captures one node's execution outcome.
type StepResult struct {
	ID         string    `json:"id"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Success    bool      `json:"success"`
	HTTPStatus int       `json:"httpStatus,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// CycleMode controls how topologicalOrder treats nodes that never reach
// in-degree zero (i.e. members of a cycle, or nodes unreachable from any
// zero-in-degree node).
type CycleMode int

const (
	// CycleSkip silently omits cycle members from the execution order,
	// matching the graph's original, still-default behavior.
	CycleSkip CycleMode = iota
	// CycleStrict rejects the graph outright when any node is left out of
	// the order, per the open question in §9 ("should a cycle be an
	// explicit validation error? Recommend yes").
	CycleStrict
)

// topologicalOrder computes a Kahn's-algorithm ordering of g.Nodes. The
// frontier is consumed LIFO (a stack), matching the graph's documented
// "repeatability not required across ties" tie-break.
func topologicalOrder(g LogicFlowGraph, mode CycleMode) ([]Node, error) {
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("graph is empty or invalid")
	}

	byID := make(map[string]Node, len(g.Nodes))
	inDegree := make(map[string]int, len(g.Nodes))
	successors := make(map[string][]string, len(g.Nodes))

	for _, n := range g.Nodes {
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		byID[n.ID] = n
		inDegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		if _, ok := byID[e.Source]; !ok {
			return nil, fmt.Errorf("edge %q references unknown source node %q", e.ID, e.Source)
		}
		if _, ok := byID[e.Target]; !ok {
			return nil, fmt.Errorf("edge %q references unknown target node %q", e.ID, e.Target)
		}
		successors[e.Source] = append(successors[e.Source], e.Target)
		inDegree[e.Target]++
	}

	var frontier []string
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			frontier = append(frontier, n.ID)
		}
	}
	sort.Strings(frontier) // deterministic seed ordering; LIFO pop still applies

	var order []Node
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		order = append(order, byID[id])

		for _, succ := range successors[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				frontier = append(frontier, succ)
			}
		}
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("graph is empty or invalid")
	}

	if len(order) < len(g.Nodes) && mode == CycleStrict {
		return nil, fmt.Errorf("graph contains a cycle: %d of %d nodes are unreachable via topological order", len(g.Nodes)-len(order), len(g.Nodes))
	}

	return order, nil
}
