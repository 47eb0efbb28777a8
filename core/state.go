package core

import "strings"

// Post field names. RequiredFields preserves declaration order; validation
// reports missing fields in this order.
const (
	FieldPlatform = "platform"
	FieldTitle    = "title"
	FieldContent  = "content"
)

// RequiredFields are the fields a post needs before confirmation.
var RequiredFields = []string{FieldPlatform, FieldTitle, FieldContent}

// State is the mutable record threaded through one workflow run.
// It is owned by that run: node handlers are the only writers, and
// Messages is append-only while the engine is executing. The history
// cap is applied only at the turn boundary, before new input runs.
type State struct {
	Messages      []Message         `json:"messages"`
	PostInfo      map[string]string `json:"post_info"`
	AIResponse    string            `json:"ai_response"`
	AIEvaluation  string            `json:"ai_evaluation"`
	HumanResponse string            `json:"human_response,omitempty"`
	Reflections   string            `json:"reflections,omitempty"`
	Status        Status            `json:"status"`
}

// NewState creates a fresh conversation state with all post fields empty.
func NewState() *State {
	return &State{
		PostInfo: map[string]string{
			FieldPlatform: "",
			FieldTitle:    "",
			FieldContent:  "",
		},
	}
}

// Append adds a message to the transcript.
func (s *State) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// LastUserMessage returns the content of the most recent user turn,
// or "" if the user has not spoken yet.
func (s *State) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// MergeFields folds extracted field values into PostInfo. Only non-empty
// extractions are applied, so a field the user already provided is never
// clobbered by a turn that does not mention it. Later non-empty values
// override earlier ones.
func (s *State) MergeFields(extracted map[string]string) {
	if s.PostInfo == nil {
		s.PostInfo = make(map[string]string)
	}
	for _, field := range RequiredFields {
		if v := strings.TrimSpace(extracted[field]); v != "" {
			s.PostInfo[field] = v
		}
	}
}

// MissingFields returns the required fields that are still empty,
// in declaration order.
func (s *State) MissingFields() []string {
	var missing []string
	for _, field := range RequiredFields {
		if strings.TrimSpace(s.PostInfo[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// TrimHistory drops the oldest messages so that at most max remain.
// The greeting (first message) is kept as conversational anchor.
// Call it only between turns: trimming while assistant messages are
// still awaiting delivery would shift them out from under the caller.
func (s *State) TrimHistory(max int) {
	if max <= 0 || len(s.Messages) <= max {
		return
	}
	head := s.Messages[0]
	tail := s.Messages[len(s.Messages)-(max-1):]
	s.Messages = append([]Message{head}, tail...)
}
