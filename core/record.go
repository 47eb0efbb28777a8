package core

import "fmt"

// Record is one persisted, completed interaction. Records are immutable
// once stored: the storage node appends them and nothing mutates them
// afterwards.
type Record struct {
	Platform      string `json:"platform"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	AIResponse    string `json:"ai_response"`
	AIEvaluation  string `json:"ai_evaluation"`
	HumanResponse string `json:"human_response,omitempty"`
	Reflections   string `json:"reflections,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Document returns the canonical text rendering used for embedding.
// Field order is fixed so that the same record always embeds to the
// same vector.
func (r Record) Document() string {
	response := r.AIResponse
	if r.HumanResponse != "" {
		response = r.HumanResponse
	}
	return fmt.Sprintf("Platform: %s\nTitle: %s\nContent: %s\nResponse: %s",
		r.Platform, r.Title, r.Content, response)
}
