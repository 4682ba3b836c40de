package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/arjun/wayfarer/internal/state"
)

// End is the routing destination that halts the graph.
const End = "end"

// defaultMaxSteps bounds the run loop so a miswired graph cannot spin forever.
const defaultMaxSteps = 64

// Handler transforms the planning state for one node. Handlers receive the
// state by value and return an updated value; a non-nil error is recorded as
// a stage-level failure and routed to error recovery by the engine. Errors
// wrapping state.ErrInvalidState mark the failure as structural.
type Handler func(ctx context.Context, s state.PlanningState) (state.PlanningState, error)

type conditionalEdge struct {
	predicate    func(state.PlanningState) string
	destinations map[string]string
}

// Graph is a directed-graph interpreter over named nodes. After every node
// it evaluates routing in fixed priority: stage-level failure, then pending
// interruption, then the node's own conditional or unconditional edge.
type Graph struct {
	entry       string
	nodes       map[string]Handler
	produces    map[string]state.Stage
	byStage     map[state.Stage]string
	edges       map[string]string
	conditional map[string]conditionalEdge

	errorNode     string
	interruptNode string
	needsInput    func(state.PlanningState) bool

	maxSteps int
}

// NewGraph creates an empty graph entered at the named node.
func NewGraph(entry string) *Graph {
	return &Graph{
		entry:       entry,
		nodes:       make(map[string]Handler),
		produces:    make(map[string]state.Stage),
		byStage:     make(map[state.Stage]string),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
		maxSteps:    defaultMaxSteps,
	}
}

// AddNode registers a handler under name. produces is the stage the node
// advances the workflow to on success; control nodes pass the empty stage.
func (g *Graph) AddNode(name string, produces state.Stage, h Handler) {
	g.nodes[name] = h
	if produces != "" {
		g.produces[name] = produces
		g.byStage[produces] = name
	}
}

// AddEdge registers the unconditional transition from -> to.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdges routes from based on the key the predicate derives
// from the post-handler state.
func (g *Graph) AddConditionalEdges(from string, predicate func(state.PlanningState) string, destinations map[string]string) {
	g.conditional[from] = conditionalEdge{predicate: predicate, destinations: destinations}
}

// SetErrorNode names the node that stage-level failures pre-empt routing to.
func (g *Graph) SetErrorNode(name string) {
	g.errorNode = name
}

// SetInterruptNode names the suspension node and the predicate that detects
// a need for external input. Interruption checks run after the error check
// and before normal routing.
func (g *Graph) SetInterruptNode(name string, needsInput func(state.PlanningState) bool) {
	g.interruptNode = name
	g.needsInput = needsInput
}

// NodeProducing returns the node registered as producing the given stage.
func (g *Graph) NodeProducing(st state.Stage) string {
	return g.byStage[st]
}

// Run executes the graph from its entry node until a terminal stage is
// reached or the workflow suspends awaiting external input. The returned
// state's CurrentStage distinguishes the two.
func (g *Graph) Run(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	return g.run(ctx, g.entry, s, true)
}

// ResumeFrom re-enters the graph at the routing step after the named node,
// without re-invoking its handler. Used when a suspended run resumes: the
// node had already completed when the interruption pre-empted its edges.
func (g *Graph) ResumeFrom(ctx context.Context, node string, s state.PlanningState) (state.PlanningState, error) {
	if _, ok := g.nodes[node]; !ok {
		return s, fmt.Errorf("unknown resume node %q", node)
	}
	return g.run(ctx, node, s, false)
}

func (g *Graph) run(ctx context.Context, node string, s state.PlanningState, invoke bool) (state.PlanningState, error) {
	current := node
	for steps := 0; ; steps++ {
		if steps >= g.maxSteps {
			return s, fmt.Errorf("workflow exceeded %d steps at node %q", g.maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}

		if invoke {
			h, ok := g.nodes[current]
			if !ok {
				return s, fmt.Errorf("no handler registered for node %q", current)
			}
			log.Printf("[graph] node %s (stage %s)", current, s.CurrentStage)
			next, err := h(ctx, s)
			if err != nil {
				// The handler's best state still carries forward; the
				// failure is recorded for the recovery route below.
				next.SetFailure(g.failureStage(current, next), err.Error(), errors.Is(err, state.ErrInvalidState))
			}
			s = next
		}
		invoke = true

		if s.CurrentStage.Terminal() {
			return s, nil
		}
		if s.Failure != nil && current != g.errorNode && g.errorNode != "" {
			current = g.errorNode
			continue
		}
		if g.needsInput != nil && g.interruptNode != "" &&
			current != g.interruptNode && current != g.errorNode && g.needsInput(s) {
			current = g.interruptNode
			continue
		}
		if s.CurrentStage == state.StageInterrupted {
			return s, nil
		}

		next, err := g.route(current, s)
		if err != nil {
			return s, err
		}
		if next == End {
			return s, nil
		}
		current = next
	}
}

func (g *Graph) route(from string, s state.PlanningState) (string, error) {
	if c, ok := g.conditional[from]; ok {
		key := c.predicate(s)
		dest, ok := c.destinations[key]
		if !ok {
			return "", fmt.Errorf("node %q routed to unknown destination key %q", from, key)
		}
		return dest, nil
	}
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	return "", fmt.Errorf("no edge out of node %q", from)
}

// failureStage picks the stage a failure is attributed to: the stage the
// node was producing, falling back to the state's current stage.
func (g *Graph) failureStage(node string, s state.PlanningState) state.Stage {
	if st, ok := g.produces[node]; ok {
		return st
	}
	return s.CurrentStage
}
