package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/echoforge/echoforge/config"
	"github.com/echoforge/echoforge/core"
	"github.com/echoforge/echoforge/memory"
	"github.com/echoforge/echoforge/memory/embedder/mock"
	"github.com/echoforge/echoforge/storage"
	"github.com/echoforge/echoforge/workflow"
)

// fakeLLM answers each prompt kind from a scripted queue, sniffing the
// kind from distinctive prompt text.
type fakeLLM struct {
	t *testing.T

	extractions []string // JSON payloads, consumed in order
	quits       []string
	confirms    []string
	generations []string

	generationErr error
}

func pop(t *testing.T, kind string, queue *[]string) string {
	t.Helper()
	if len(*queue) == 0 {
		t.Fatalf("unscripted %s call", kind)
	}
	head := (*queue)[0]
	*queue = (*queue)[1:]
	return head
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "quit or exit"):
		return pop(f.t, "quit-intent", &f.quits), nil
	case strings.Contains(prompt, "CONFIRMED, MODIFY, or QUIT"):
		return pop(f.t, "confirmation", &f.confirms), nil
	case strings.Contains(prompt, "<user_profile>"),
		strings.Contains(prompt, "responding as if you were the user"):
		if f.generationErr != nil {
			return "", f.generationErr
		}
		return pop(f.t, "generation", &f.generations), nil
	default:
		f.t.Fatalf("unrecognized prompt: %.80s", prompt)
		return "", nil
	}
}

func (f *fakeLLM) CompleteStructured(ctx context.Context, prompt string, out any) error {
	if !strings.Contains(prompt, "Parse the following user input") {
		f.t.Fatalf("unexpected structured prompt: %.80s", prompt)
	}
	return json.Unmarshal([]byte(pop(f.t, "extraction", &f.extractions)), out)
}

// scriptedIO replays user turns and captures everything the agent says.
type scriptedIO struct {
	inputs  []string
	notices []string
}

func (s *scriptedIO) Notify(ctx context.Context, text string) error {
	s.notices = append(s.notices, text)
	return nil
}

func (s *scriptedIO) PromptAndWait(ctx context.Context) (string, error) {
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	head := s.inputs[0]
	s.inputs = s.inputs[1:]
	return head, nil
}

func (s *scriptedIO) said(t *testing.T, fragment string) {
	t.Helper()
	for _, n := range s.notices {
		if strings.Contains(n, fragment) {
			return
		}
	}
	t.Errorf("agent never said %q; said:\n%s", fragment, strings.Join(s.notices, "\n---\n"))
}

func (s *scriptedIO) neverSaid(t *testing.T, fragment string) {
	t.Helper()
	for _, n := range s.notices {
		if strings.Contains(n, fragment) {
			t.Errorf("agent said %q: %q", fragment, n)
		}
	}
}

func newTestAgent(t *testing.T, llm *fakeLLM) (*Agent, *memory.Store) {
	t.Helper()
	return newTestAgentWithConfig(t, config.Default(), llm)
}

func newTestAgentWithConfig(t *testing.T, cfg config.Config, llm *fakeLLM) (*Agent, *memory.Store) {
	t.Helper()
	mem, err := memory.NewStore(storage.NewFileStore(t.TempDir()), mock.New())
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	a, err := New(cfg, llm, mem, workflow.NewMemoryStore())
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return a, mem
}

func TestChat_AllFieldsAtOnce(t *testing.T) {
	llm := &fakeLLM{
		t:           t,
		extractions: []string{`{"platform":"LinkedIn","title":"Go 1.24","content":"Generics changed how we build libraries."}`},
		quits:       []string{"CONTINUE"},
		confirms:    []string{"CONFIRMED"},
		generations: []string{"<response>Great write-up, generics earned their place.</response>\n<evaluation>High confidence. Based on examples.</evaluation>"},
	}
	a, mem := newTestAgent(t, llm)

	io := &scriptedIO{inputs: []string{
		"Platform LinkedIn, title Go 1.24, content: Generics changed how we build libraries.",
		"Y",
	}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	io.said(t, "I'm ready to help you craft a response")
	io.said(t, "Does this look correct? [Y/N].")
	io.said(t, "Response: Great write-up, generics earned their place.")
	io.said(t, "Evaluation: High confidence. Based on examples.")
	io.said(t, "Thanks for using EchoForge. Goodbye!")

	records, err := mem.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Platform != "LinkedIn" || rec.Title != "Go 1.24" {
		t.Errorf("record fields = %+v", rec)
	}
	if rec.AIResponse != "Great write-up, generics earned their place." {
		t.Errorf("record response = %q", rec.AIResponse)
	}
	if rec.Timestamp == "" {
		t.Error("record timestamp is empty")
	}
}

func TestChat_IncrementalFields(t *testing.T) {
	llm := &fakeLLM{
		t: t,
		extractions: []string{
			`{"platform":"Reddit","title":"","content":""}`,
			`{"platform":"","title":"Hiring advice","content":"How do you interview for curiosity?"}`,
		},
		quits:       []string{"CONTINUE", "CONTINUE"},
		confirms:    []string{"CONFIRMED"},
		generations: []string{"<response>Ask about the last thing they learned.</response>\n<evaluation>Medium confidence.</evaluation>"},
	}
	a, mem := newTestAgent(t, llm)

	io := &scriptedIO{inputs: []string{
		"I want to post on Reddit",
		"Title: Hiring advice. Content: How do you interview for curiosity?",
		"looks good",
	}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	// The first turn leaves two gaps, named in order with the joining law.
	io.said(t, "I still need the title and content of your post. Please provide them.")
	io.said(t, "Does this look correct? [Y/N].")

	records, err := mem.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Platform != "Reddit" {
		t.Errorf("records = %+v", records)
	}
}

func TestChat_ModifyKeepsFields(t *testing.T) {
	llm := &fakeLLM{
		t: t,
		extractions: []string{
			`{"platform":"Twitter","title":"Old title","content":"Body text"}`,
			`{"platform":"","title":"New title","content":""}`,
		},
		quits:       []string{"CONTINUE", "CONTINUE"},
		confirms:    []string{"MODIFY", "CONFIRMED"},
		generations: []string{"<response>Short and punchy.</response>\n<evaluation>High confidence.</evaluation>"},
	}
	a, mem := newTestAgent(t, llm)

	io := &scriptedIO{inputs: []string{
		"Twitter post, Old title, Body text",
		"no, the title is wrong",
		"actually call it New title",
		"yes",
	}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	io.said(t, "I understand you'd like to make modifications.")

	records, err := mem.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored %d records, want 1", len(records))
	}
	rec := records[0]
	// The restated title replaces the old one; untouched fields survive.
	if rec.Title != "New title" || rec.Platform != "Twitter" || rec.Content != "Body text" {
		t.Errorf("record = %+v", rec)
	}
}

func TestChat_QuitMidway(t *testing.T) {
	llm := &fakeLLM{
		t:           t,
		extractions: []string{`{"platform":"","title":"","content":""}`},
		quits:       []string{"QUIT"},
	}
	a, mem := newTestAgent(t, llm)

	io := &scriptedIO{inputs: []string{"actually, nevermind, quit"}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	io.said(t, "Thanks for using EchoForge. Goodbye!")
	io.neverSaid(t, "Does this look correct?")

	records, err := mem.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("quit conversation stored %+v", records)
	}
}

func TestChat_GenerationFailureStillCompletes(t *testing.T) {
	llm := &fakeLLM{
		t:             t,
		extractions:   []string{`{"platform":"LinkedIn","title":"T","content":"C"}`},
		quits:         []string{"CONTINUE"},
		confirms:      []string{"CONFIRMED"},
		generationErr: errors.New("model overloaded"),
	}
	a, mem := newTestAgent(t, llm)

	io := &scriptedIO{inputs: []string{"LinkedIn, T, C", "Y"}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	io.said(t, "I wasn't able to generate a response this time")
	io.said(t, "Evaluation: Evaluation unavailable: generation failed")
	io.said(t, "Thanks for using EchoForge. Goodbye!")

	// The failed interaction is still recorded, with the fallback texts.
	records, err := mem.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored %d records, want 1", len(records))
	}
	if records[0].AIEvaluation != "Evaluation unavailable: generation failed" {
		t.Errorf("evaluation = %q", records[0].AIEvaluation)
	}
}

func TestChat_UnparseableConfirmationProceeds(t *testing.T) {
	llm := &fakeLLM{
		t:           t,
		extractions: []string{`{"platform":"Blog","title":"T","content":"C"}`},
		quits:       []string{"CONTINUE"},
		confirms:    []string{"well, maybe?"},
		generations: []string{"<response>Done.</response>\n<evaluation>Low confidence.</evaluation>"},
	}
	a, _ := newTestAgent(t, llm)

	io := &scriptedIO{inputs: []string{"Blog, T, C", "hmm"}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	io.said(t, "I'll proceed with the current information.")
	io.said(t, "Response: Done.")
}

func TestChat_DeliverySurvivesHistoryCap(t *testing.T) {
	// Three empty-extraction turns against a four-message history cap
	// push the transcript past the cap mid-conversation. Every
	// missing-field reply must still reach the user.
	llm := &fakeLLM{
		t: t,
		extractions: []string{
			`{"platform":"","title":"","content":""}`,
			`{"platform":"","title":"","content":""}`,
			`{"platform":"","title":"","content":""}`,
		},
		quits: []string{"CONTINUE", "CONTINUE", "CONTINUE"},
	}
	cfg := config.Default()
	cfg.MaxConversationHistory = 4
	a, _ := newTestAgentWithConfig(t, cfg, llm)

	io := &scriptedIO{inputs: []string{"hello", "still thinking", "one moment"}}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	asked := 0
	for _, n := range io.notices {
		if strings.Contains(n, "I still need the platform, title, and content of your post") {
			asked++
		}
	}
	if asked != 3 {
		t.Errorf("delivered %d missing-field replies, want 3; said:\n%s",
			asked, strings.Join(io.notices, "\n---\n"))
	}
}

func TestChat_DroppedConnectionLeavesThreadSuspended(t *testing.T) {
	llm := &fakeLLM{t: t}
	a, _ := newTestAgent(t, llm)

	// The script runs dry immediately after the greeting.
	io := &scriptedIO{}
	if err := a.Chat(context.Background(), io); err != nil {
		t.Fatalf("chat: %v", err)
	}

	threads, err := a.Threads(context.Background())
	if err != nil {
		t.Fatalf("threads: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("threads = %v, want one suspended conversation", threads)
	}

	// An external driver can pick the thread back up later.
	llm.extractions = []string{`{"platform":"","title":"","content":""}`}
	llm.quits = []string{"QUIT"}
	res, err := a.Resume(context.Background(), threads[0], "quit")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Interrupted {
		t.Error("quit resume should complete the run")
	}
	if res.State.Status != core.StatusExit {
		t.Errorf("status = %q", res.State.Status)
	}
}

func TestEcho(t *testing.T) {
	llm := &fakeLLM{
		t:           t,
		generations: []string{"Sounds like a plan, count me in."},
	}
	a, mem := newTestAgent(t, llm)

	// Seed one historical record so retrieval has something to surface.
	err := mem.AppendRecord(context.Background(), core.Record{
		Platform:   "Slack",
		Title:      "Team offsite",
		Content:    "Should we do a hack day?",
		AIResponse: "Count me in.",
		Timestamp:  "2026-08-30T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	got, err := a.Echo(context.Background(), "Slack", "Team offsite", "Hack day next month?")
	if err != nil {
		t.Fatalf("echo: %v", err)
	}
	if got != "Sounds like a plan, count me in." {
		t.Errorf("echo = %q", got)
	}
}
