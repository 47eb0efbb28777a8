// Package workflow is a small directed-graph engine for conversational
// state machines. Nodes transform a state value; conditional edges route
// on a label computed from the state, with a mandatory fallback so no
// label can reach an undefined transition. Runs suspend at declared
// interrupt points and resume from a persisted checkpoint, so a
// conversation survives across calls (and processes) without holding a
// goroutine hostage.
package workflow

import (
	"context"
	"fmt"
)

// End is the reserved terminal node. Routing to End finishes the run.
const End = "__end__"

// Handler transforms the state at one node. Handlers may call external
// collaborators; errors propagate to the caller of the run.
type Handler[S any] func(ctx context.Context, state S) (S, error)

// Predicate maps the state to a routing label after a node executes.
type Predicate[S any] func(state S) string

type conditional[S any] struct {
	predicate Predicate[S]
	targets   map[string]string
	fallback  string
}

// Graph is a workflow under construction. Call Compile to validate it
// and obtain a Runner.
type Graph[S any] struct {
	nodes      map[string]Handler[S]
	edges      map[string]string
	conds      map[string]conditional[S]
	entry      string
	interrupts map[string]bool
}

// NewGraph creates an empty graph.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:      make(map[string]Handler[S]),
		edges:      make(map[string]string),
		conds:      make(map[string]conditional[S]),
		interrupts: make(map[string]bool),
	}
}

// AddNode registers a named node.
func (g *Graph[S]) AddNode(name string, h Handler[S]) *Graph[S] {
	g.nodes[name] = h
	return g
}

// AddEdge adds an unconditional edge.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdges routes from a node by the label the predicate
// returns. A label missing from targets resolves to the fallback label,
// which must itself be present in targets.
func (g *Graph[S]) AddConditionalEdges(from string, p Predicate[S], targets map[string]string, fallback string) *Graph[S] {
	g.conds[from] = conditional[S]{predicate: p, targets: targets, fallback: fallback}
	return g
}

// SetEntryPoint declares the node a run starts from.
func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entry = name
	return g
}

// InterruptBefore declares nodes the engine suspends in front of,
// awaiting fresh human input before the node executes.
func (g *Graph[S]) InterruptBefore(names ...string) *Graph[S] {
	for _, n := range names {
		g.interrupts[n] = true
	}
	return g
}

// validate checks graph integrity so routing surprises surface at build
// time, not mid-conversation.
func (g *Graph[S]) validate() error {
	if g.entry == "" {
		return fmt.Errorf("workflow: no entry point set")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("workflow: entry point %q is not a registered node", g.entry)
	}
	for name := range g.nodes {
		_, hasEdge := g.edges[name]
		_, hasCond := g.conds[name]
		if hasEdge && hasCond {
			return fmt.Errorf("workflow: node %q has both an unconditional and a conditional edge", name)
		}
		if !hasEdge && !hasCond {
			return fmt.Errorf("workflow: node %q has no outgoing edge", name)
		}
	}
	for from, to := range g.edges {
		if err := g.checkTarget(from, to); err != nil {
			return err
		}
	}
	for from, c := range g.conds {
		if len(c.targets) == 0 {
			return fmt.Errorf("workflow: conditional node %q has no targets", from)
		}
		if _, ok := c.targets[c.fallback]; !ok {
			return fmt.Errorf("workflow: conditional node %q: fallback label %q not in targets", from, c.fallback)
		}
		for label, to := range c.targets {
			if err := g.checkTarget(from, to); err != nil {
				return fmt.Errorf("label %q: %w", label, err)
			}
		}
	}
	for name := range g.interrupts {
		if _, ok := g.nodes[name]; !ok {
			return fmt.Errorf("workflow: interrupt point %q is not a registered node", name)
		}
	}
	return nil
}

func (g *Graph[S]) checkTarget(from, to string) error {
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("workflow: edge from %q targets unknown node %q", from, to)
	}
	return nil
}
