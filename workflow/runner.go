package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Result reports how a run segment ended: either the graph reached End,
// or it suspended before an interrupt node and awaits new input.
type Result[S any] struct {
	State       S
	Interrupted bool
	// NextNode is the interrupt node the run is parked before.
	// Empty when the run completed.
	NextNode string
}

// Runner executes a compiled graph. One runner serves any number of
// concurrent threads; per-thread progress lives in the checkpoint store,
// not in the runner.
type Runner[S any] struct {
	graph *Graph[S]
	store CheckpointStore
}

// Compile validates the graph and binds it to a checkpoint store.
// A nil store falls back to an in-memory one.
func (g *Graph[S]) Compile(store CheckpointStore) (*Runner[S], error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Runner[S]{graph: g, store: store}, nil
}

// Start begins a new run at the entry node. If the entry node is an
// interrupt point the run suspends immediately, before executing it.
func (r *Runner[S]) Start(ctx context.Context, threadID string, initial S) (*Result[S], error) {
	return r.run(ctx, threadID, r.graph.entry, initial, false)
}

// Resume continues a suspended run. apply receives the checkpointed
// state and merges the new human input (typically appending a user
// message) before the parked node executes.
func (r *Runner[S]) Resume(ctx context.Context, threadID string, apply func(S) S) (*Result[S], error) {
	data, err := r.store.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint for thread %s: %w", threadID, err)
	}
	var cp checkpoint[S]
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint for thread %s: %w", threadID, err)
	}
	state := cp.State
	if apply != nil {
		state = apply(state)
	}
	return r.run(ctx, threadID, cp.NextNode, state, true)
}

// Abandon discards a suspended run without persisting anything further.
func (r *Runner[S]) Abandon(ctx context.Context, threadID string) error {
	return r.store.Delete(ctx, threadID)
}

// Threads lists thread ids with a pending checkpoint.
func (r *Runner[S]) Threads(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

func (r *Runner[S]) run(ctx context.Context, threadID, node string, state S, resuming bool) (*Result[S], error) {
	// A resume lands exactly on the parked interrupt node; it must
	// execute rather than suspend again for the same input.
	skipInterrupt := resuming

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if node == End {
			if err := r.store.Delete(ctx, threadID); err != nil {
				log.Printf("[WORKFLOW] failed to clear checkpoint for thread %s: %v", threadID, err)
			}
			return &Result[S]{State: state}, nil
		}

		if r.graph.interrupts[node] && !skipInterrupt {
			if err := r.checkpoint(ctx, threadID, node, state); err != nil {
				return nil, err
			}
			return &Result[S]{State: state, Interrupted: true, NextNode: node}, nil
		}
		skipInterrupt = false

		handler, ok := r.graph.nodes[node]
		if !ok {
			return nil, fmt.Errorf("workflow: unknown node %q", node)
		}
		next, err := handler(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node, err)
		}
		state = next

		node = r.route(node, state, threadID)
	}
}

// route picks the next node after a node executed.
func (r *Runner[S]) route(node string, state S, threadID string) string {
	if to, ok := r.graph.edges[node]; ok {
		return to
	}
	cond := r.graph.conds[node]
	label := cond.predicate(state)
	to, ok := cond.targets[label]
	if !ok {
		// Unrecognized routing label: anomaly, not fatal.
		log.Printf("[WORKFLOW] thread %s: node %s produced unmapped label %q, falling back to %q",
			threadID, node, label, cond.fallback)
		to = cond.targets[cond.fallback]
	}
	return to
}

func (r *Runner[S]) checkpoint(ctx context.Context, threadID, node string, state S) error {
	data, err := json.Marshal(checkpoint[S]{
		ThreadID:  threadID,
		NextNode:  node,
		State:     state,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode checkpoint for thread %s: %w", threadID, err)
	}
	if err := r.store.Save(ctx, threadID, data); err != nil {
		return fmt.Errorf("save checkpoint for thread %s: %w", threadID, err)
	}
	return nil
}
