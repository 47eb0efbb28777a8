// Package prompts holds every prompt template and user-facing message the
// agent emits. Builders are pure functions of their inputs so the exact
// wording is testable without a model in the loop.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/echoforge/echoforge/core"
)

// Greeting is the opening message of a copilot conversation.
func Greeting() string {
	return `Hello! I'm ready to help you craft a response. Please provide me with:
1. Platform (e.g., LinkedIn, Twitter, Reddit)
2. Title of the post
3. Content of the post

You can provide all three at once or one by one.`
}

// Confirmation summarizes the collected fields and asks for approval.
func Confirmation(platform, title, content string) string {
	return fmt.Sprintf(`Here's what I understood:

Platform: %s
Title: %s
Content: %s

Does this look correct? [Y/N].`, platform, title, content)
}

// ConfirmationSuccess acknowledges a confirmed post.
func ConfirmationSuccess() string {
	return "Great! I've confirmed your post information. Let me generate a response for you."
}

// ModificationRequest acknowledges a modification request. Previously
// collected fields are kept; the user only restates what changes.
func ModificationRequest() string {
	return "I understand you'd like to make modifications. Please provide the new platform, title, and content information. You can provide all three at once or one by one."
}

// DefaultConfirmation is emitted when the confirmation reply could not be
// classified; the agent proceeds rather than blocking.
func DefaultConfirmation() string {
	return "I'll proceed with the current information. Let me generate a response for you."
}

// Exit is the fixed goodbye message.
func Exit() string {
	return "Thanks for using EchoForge. Goodbye!"
}

// GenerationFailure is the user-visible fallback when the generation
// backend fails; the conversation completes instead of crashing.
func GenerationFailure() string {
	return "I wasn't able to generate a response this time due to an upstream error. Please try again later."
}

// EvaluationUnavailable marks a missing self-evaluation after a failed
// generation call.
const EvaluationUnavailable = "Evaluation unavailable: generation failed"

// AskForMissing phrases the missing-field request. Joining rules: one
// field -> "the X"; two -> "the X and Y"; three or more -> "the X, Y,
// and Z" (Oxford comma), preserving the order given.
func AskForMissing(missing []string) string {
	switch len(missing) {
	case 0:
		return "All required fields have been provided."
	case 1:
		return fmt.Sprintf("I still need the %s of your post. Please provide it.", strings.ToLower(missing[0]))
	case 2:
		return fmt.Sprintf("I still need the %s and %s of your post. Please provide them.",
			strings.ToLower(missing[0]), strings.ToLower(missing[1]))
	default:
		lowered := make([]string, len(missing))
		for i, f := range missing {
			lowered[i] = strings.ToLower(f)
		}
		head := strings.Join(lowered[:len(lowered)-1], ", ")
		return fmt.Sprintf("I still need the %s, and %s of your post. Please provide them.",
			head, lowered[len(lowered)-1])
	}
}

// ExtractPost asks the model to pull the post fields out of free text.
// Extraction is verbatim-only: fields not present in the input stay empty.
func ExtractPost(userInput string) string {
	return fmt.Sprintf(`Parse the following user input and extract the platform, title, and content information.
Return your response in JSON format with keys: "platform", "title", "content".
EXTRACT ONLY what is explicitly provided. If any information is missing, use an empty string for that key. Do not infer or fabricate values.

User input: %s

JSON response:`, userInput)
}

// QuitIntent classifies free text into the token set {QUIT, CONTINUE}.
func QuitIntent(userInput string) string {
	return fmt.Sprintf(`Analyze the following user input to determine if they want to quit or exit the conversation.
Look for words like: quit, exit, goodbye, bye, stop, end, leave, etc.

User input: %s

Respond with only "QUIT" if they want to exit, or "CONTINUE" if they want to keep going.`, userInput)
}

// ParseConfirmation classifies a confirmation reply into the token set
// {CONFIRMED, MODIFY, QUIT}.
func ParseConfirmation(userInput string) string {
	return fmt.Sprintf(`Analyze the following user input to determine their intent:
- If they confirm/approve (yes, correct, looks good, etc.), respond with "CONFIRMED"
- If they want changes (no, change, modify, etc.), respond with "MODIFY"
- If they want to quit (quit, exit, goodbye, etc.), respond with "QUIT"

User input: %s

Respond with only: CONFIRMED, MODIFY, or QUIT`, userInput)
}

// GenerateResponse builds the main generation prompt: profile, retrieved
// examples, and the collected fields, with the tagged two-segment output
// contract.
func GenerateResponse(profile core.Profile, examples []core.Record, platform, title, content string) string {
	return fmt.Sprintf(`<user_profile>
%s
</user_profile>

<examples>
%s
</examples>

<inputs>
Platform: %s
Title: %s
Content: %s
</inputs>

Based on the user profile and examples above, generate a response that matches the user's communication style, personality, and expertise. Then evaluate your response.

IMPORTANT: You MUST use the exact XML format below with proper opening and closing tags:

<response>
[Your response here]
</response>

<evaluation>
Provide a brief evaluation (2-3 sentences max) covering:
1. Confidence level (High/Medium/Low)
2. Main source of response (Profile/Examples/LLM-generated)
3. Any concerns or limitations
</evaluation>

CRITICAL: Ensure both <response> and <evaluation> sections have proper opening AND closing tags.`,
		profile.Render(), FormatExamples(examples), platform, title, content)
}

// Echo builds the one-shot echo-mode prompt.
func Echo(context, title, content string, profile core.Profile, notes []core.Record) string {
	profileText := "No profile data available"
	if len(profile) > 0 {
		if data, err := json.MarshalIndent(profile, "", "  "); err == nil {
			profileText = string(data)
		}
	}

	return fmt.Sprintf(`You are responding as if you were the user. Generate a response that matches their communication style, tone, knowledge, values, and preferences.

Context: %s
Title: %s
Content: %s

User Profile:
%s

Relevant Historical Examples:
%s

Based on the context, title, and content above, generate a response that:
1. Matches the user's communication style and tone
2. Reflects their knowledge and expertise areas
3. Aligns with their values and preferences
4. Is appropriate for the given context

Response:`, context, title, content, profileText, FormatExamples(notes))
}

// FormatExamples renders retrieved records for prompt inclusion.
func FormatExamples(records []core.Record) string {
	if len(records) == 0 {
		return "No relevant historical examples found."
	}
	parts := make([]string, len(records))
	for i, r := range records {
		response := r.AIResponse
		if r.HumanResponse != "" {
			response = r.HumanResponse
		}
		parts[i] = fmt.Sprintf("Platform: %s\nTitle: %s\nContent: %s\nYour Response: %s",
			r.Platform, r.Title, r.Content, response)
	}
	return strings.Join(parts, "\n\n")
}
