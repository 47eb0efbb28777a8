// Package agent wires the conversational workflow, the retrieval memory,
// and the language model into the EchoForge façade.
package agent

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/echoforge/echoforge/config"
	"github.com/echoforge/echoforge/core"
	"github.com/echoforge/echoforge/llm"
	"github.com/echoforge/echoforge/memory"
	"github.com/echoforge/echoforge/prompts"
	"github.com/echoforge/echoforge/workflow"
)

// Workflow node names.
const (
	nodeGather   = "gather_post_info"
	nodeValidate = "validate_post_info"
	nodeConfirm  = "confirm_post_info"
	nodeGenerate = "generate_response"
	nodeStore    = "store_record"
	nodeExit     = "handle_exit"
)

// HumanIO is the collaborator a conversation talks through. Chat calls
// Notify for every assistant message and PromptAndWait whenever the
// workflow suspends for input. An error from PromptAndWait means the
// human side is gone; the conversation stays suspended in its checkpoint.
type HumanIO interface {
	Notify(ctx context.Context, text string) error
	PromptAndWait(ctx context.Context) (string, error)
}

// Agent owns one compiled workflow graph, one memory store, and one
// model client. It is safe for concurrent conversations; per-thread
// progress lives in the checkpoint store.
type Agent struct {
	cfg    config.Config
	llm    llm.Client
	mem    *memory.Store
	runner *workflow.Runner[*core.State]
}

// New builds the conversation graph and binds it to the checkpoint
// store. A nil store keeps checkpoints in process memory.
func New(cfg config.Config, client llm.Client, mem *memory.Store, checkpoints workflow.CheckpointStore) (*Agent, error) {
	a := &Agent{cfg: cfg, llm: client, mem: mem}

	g := workflow.NewGraph[*core.State]()
	g.AddNode(nodeGather, a.gatherPostInfo).
		AddNode(nodeValidate, a.validatePostInfo).
		AddNode(nodeConfirm, a.confirmPostInfo).
		AddNode(nodeGenerate, a.generateResponse).
		AddNode(nodeStore, a.storeRecord).
		AddNode(nodeExit, a.handleExit)

	g.AddEdge(nodeGather, nodeValidate)
	g.AddConditionalEdges(nodeValidate, statusLabel, map[string]string{
		string(core.StatusContinue): nodeGather,
		string(core.StatusConfirm):  nodeConfirm,
		string(core.StatusExit):     nodeExit,
	}, string(core.StatusContinue))
	g.AddConditionalEdges(nodeConfirm, statusLabel, map[string]string{
		string(core.StatusProceed): nodeGenerate,
		string(core.StatusModify):  nodeGather,
		string(core.StatusExit):    nodeExit,
	}, string(core.StatusProceed))
	g.AddEdge(nodeGenerate, nodeStore)
	g.AddEdge(nodeStore, nodeExit)
	g.AddEdge(nodeExit, workflow.End)

	g.SetEntryPoint(nodeGather)
	g.InterruptBefore(nodeGather, nodeConfirm)

	runner, err := g.Compile(checkpoints)
	if err != nil {
		return nil, err
	}
	a.runner = runner
	return a, nil
}

// statusLabel turns the node-written status into a routing label. The
// graph's fallback labels absorb anything a node never sets.
func statusLabel(s *core.State) string {
	return string(s.Status)
}

// Chat runs one full conversation over io, from greeting to goodbye.
// The agent speaks first. The return is interaction-only: the durable
// outcome of a completed conversation is the appended record, and a
// dropped connection leaves the thread suspended in its checkpoint.
func (a *Agent) Chat(ctx context.Context, io HumanIO) error {
	threadID := uuid.NewString()
	log.Printf("[AGENT] Starting conversation %s", threadID)

	state := core.NewState()
	state.Append(core.AssistantMessage(prompts.Greeting()))
	if err := io.Notify(ctx, prompts.Greeting()); err != nil {
		return err
	}
	seen := len(state.Messages)

	res, err := a.runner.Start(ctx, threadID, state)
	for {
		if err != nil {
			return err
		}
		if seen, err = a.deliver(ctx, io, res.State, seen); err != nil {
			return err
		}
		if !res.Interrupted {
			log.Printf("[AGENT] Conversation %s completed", threadID)
			return nil
		}

		input, ioErr := io.PromptAndWait(ctx)
		if ioErr != nil {
			log.Printf("[AGENT] Conversation %s suspended, input closed: %v", threadID, ioErr)
			return nil
		}
		res, err = a.runner.Resume(ctx, threadID, func(s *core.State) *core.State {
			s.Append(core.UserMessage(input))
			// The history cap applies only here, between turns. Every
			// message before this point has already been delivered, so
			// the high-water mark can reset past the cut.
			s.TrimHistory(a.cfg.MaxConversationHistory)
			seen = len(s.Messages)
			return s
		})
	}
}

// deliver notifies io of assistant messages appended since the last
// delivery and returns the new high-water mark.
func (a *Agent) deliver(ctx context.Context, io HumanIO, state *core.State, seen int) (int, error) {
	for ; seen < len(state.Messages); seen++ {
		m := state.Messages[seen]
		if m.Role != core.RoleAssistant {
			continue
		}
		if err := io.Notify(ctx, m.Content); err != nil {
			return seen, err
		}
	}
	return seen, nil
}

// Resume drives one suspended thread forward with a single user input,
// for external drivers that manage their own transport instead of a
// HumanIO loop.
func (a *Agent) Resume(ctx context.Context, threadID, input string) (*workflow.Result[*core.State], error) {
	return a.runner.Resume(ctx, threadID, func(s *core.State) *core.State {
		s.Append(core.UserMessage(input))
		s.TrimHistory(a.cfg.MaxConversationHistory)
		return s
	})
}

// Threads lists conversations suspended in the checkpoint store.
func (a *Agent) Threads(ctx context.Context) ([]string, error) {
	return a.runner.Threads(ctx)
}

// Echo generates a single style-matched response without the
// conversational workflow: no confirmation, no record stored.
func (a *Agent) Echo(ctx context.Context, contextText, title, content string) (string, error) {
	profile := a.mem.Profile(ctx)

	query := strings.TrimSpace(contextText + " " + title + " " + content)
	notes := records(a.mem.Query(ctx, query, a.cfg.TopK))

	return a.llm.Complete(ctx, prompts.Echo(contextText, title, content, profile, notes))
}

// records strips retrieval scores for prompt building.
func records(scored []memory.ScoredRecord) []core.Record {
	out := make([]core.Record, len(scored))
	for i, s := range scored {
		out[i] = s.Record
	}
	return out
}
