// Package llm is the boundary to the language-model collaborator. The
// workflow treats it as opaque: text in, text (or a parsed structure)
// out, and it may fail. Each node decides whether a failure is fatal or
// degrades to a documented default.
package llm

import "context"

// Client generates text completions.
type Client interface {
	// Complete returns the raw text completion for a prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteStructured completes a prompt that requests JSON output and
	// unmarshals the result into out. A response that does not parse is
	// an error; callers treat it as "nothing extracted this turn".
	CompleteStructured(ctx context.Context, prompt string, out any) error
}
