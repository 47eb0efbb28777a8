package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/echoforge/echoforge/core"
	"github.com/echoforge/echoforge/prompts"
)

// Classifier verdict tokens.
const (
	verdictQuit      = "QUIT"
	verdictConfirmed = "CONFIRMED"
	verdictModify    = "MODIFY"
)

// gatherPostInfo extracts post fields from the latest user turn. The
// extraction is verbatim-only and merge-only: fields the turn does not
// mention keep their previous values, and an extraction failure simply
// means nothing was learned this turn.
func (a *Agent) gatherPostInfo(ctx context.Context, state *core.State) (*core.State, error) {
	var parsed struct {
		Platform string `json:"platform"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	err := a.llm.CompleteStructured(ctx, prompts.ExtractPost(state.LastUserMessage()), &parsed)
	if err != nil {
		log.Printf("[AGENT] Field extraction failed: %v, nothing extracted this turn", err)
	} else {
		state.MergeFields(map[string]string{
			core.FieldPlatform: parsed.Platform,
			core.FieldTitle:    parsed.Title,
			core.FieldContent:  parsed.Content,
		})
	}
	return state, nil
}

// validatePostInfo checks for quit intent, then routes on field
// completeness: all present moves to confirmation, anything missing
// loops back to gathering with a request naming the gaps.
func (a *Agent) validatePostInfo(ctx context.Context, state *core.State) (*core.State, error) {
	if msg := state.LastUserMessage(); msg != "" {
		verdict, err := a.llm.Complete(ctx, prompts.QuitIntent(msg))
		if err != nil {
			log.Printf("[AGENT] Quit-intent check failed: %v, continuing", err)
		} else if strings.TrimSpace(verdict) == verdictQuit {
			state.Status = core.StatusExit
			return state, nil
		}
	}

	if missing := state.MissingFields(); len(missing) > 0 {
		state.Status = core.StatusContinue
		state.Append(core.AssistantMessage(prompts.AskForMissing(missing)))
		return state, nil
	}

	state.Status = core.StatusConfirm
	state.Append(core.AssistantMessage(prompts.Confirmation(
		state.PostInfo[core.FieldPlatform],
		state.PostInfo[core.FieldTitle],
		state.PostInfo[core.FieldContent],
	)))
	return state, nil
}

// confirmPostInfo classifies the user's reply to the confirmation
// summary. An unclassifiable reply proceeds rather than blocking; a
// modification keeps the collected fields so the user restates only
// what changes.
func (a *Agent) confirmPostInfo(ctx context.Context, state *core.State) (*core.State, error) {
	verdict, err := a.llm.Complete(ctx, prompts.ParseConfirmation(state.LastUserMessage()))
	if err != nil {
		log.Printf("[AGENT] Confirmation parse failed: %v, proceeding", err)
		verdict = ""
	}

	switch strings.TrimSpace(verdict) {
	case verdictConfirmed:
		state.Status = core.StatusProceed
		state.Append(core.AssistantMessage(prompts.ConfirmationSuccess()))
	case verdictModify:
		state.Status = core.StatusModify
		state.Append(core.AssistantMessage(prompts.ModificationRequest()))
	case verdictQuit:
		state.Status = core.StatusExit
	default:
		state.Status = core.StatusProceed
		state.Append(core.AssistantMessage(prompts.DefaultConfirmation()))
	}
	return state, nil
}

// generateResponse builds the generation prompt from the profile, the
// nearest historical records, and the confirmed fields, then splits the
// model output into its response and evaluation segments. A model
// failure degrades to fixed fallback texts; the run still completes.
func (a *Agent) generateResponse(ctx context.Context, state *core.State) (*core.State, error) {
	profile := a.mem.Profile(ctx)
	examples := records(a.mem.Query(ctx, state.PostInfo[core.FieldContent], a.cfg.TopK))

	prompt := prompts.GenerateResponse(profile, examples,
		state.PostInfo[core.FieldPlatform],
		state.PostInfo[core.FieldTitle],
		state.PostInfo[core.FieldContent],
	)

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		log.Printf("[AGENT] Generation failed: %v, using fallback response", err)
		state.AIResponse = prompts.GenerationFailure()
		state.AIEvaluation = prompts.EvaluationUnavailable
	} else {
		seg := prompts.ParseSegments(raw)
		state.AIResponse = seg.Response
		state.AIEvaluation = seg.Evaluation
	}

	state.Append(core.AssistantMessage("Response: " + state.AIResponse))
	state.Append(core.AssistantMessage("Evaluation: " + state.AIEvaluation))
	return state, nil
}

// storeRecord appends the completed interaction to the record queue.
// Persistence failure is fatal for the run; prior records are never
// touched.
func (a *Agent) storeRecord(ctx context.Context, state *core.State) (*core.State, error) {
	rec := core.Record{
		Platform:     state.PostInfo[core.FieldPlatform],
		Title:        state.PostInfo[core.FieldTitle],
		Content:      state.PostInfo[core.FieldContent],
		AIResponse:   state.AIResponse,
		AIEvaluation: state.AIEvaluation,
		Timestamp:    time.Now().Format(time.RFC3339),
	}
	if err := a.mem.AppendRecord(ctx, rec); err != nil {
		return state, fmt.Errorf("store record: %w", err)
	}
	return state, nil
}

// handleExit says goodbye. Every path through the graph ends here.
func (a *Agent) handleExit(ctx context.Context, state *core.State) (*core.State, error) {
	state.Status = core.StatusExit
	state.Append(core.AssistantMessage(prompts.Exit()))
	return state, nil
}
