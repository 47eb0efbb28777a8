package core

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation transcript.
// Name optionally carries the assistant persona (e.g. "EchoForge").
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// AssistantMessage builds an assistant message attributed to the agent persona.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Name: "EchoForge"}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
