package prompts

import "strings"

// EvaluationNotFound is the sentinel used when the evaluation segment is
// absent from the model output.
const EvaluationNotFound = "Evaluation not found in LLM response"

// Segments holds the two tag-delimited parts of a generation response.
type Segments struct {
	Response   string
	Evaluation string
}

// ParseSegments extracts the <response> and <evaluation> segments from
// raw model output. Partial output never fails: a missing response
// segment falls back to the full raw text, a missing evaluation segment
// falls back to EvaluationNotFound.
func ParseSegments(raw string) Segments {
	return Segments{
		Response:   extract(raw, "response", strings.TrimSpace(raw)),
		Evaluation: extract(raw, "evaluation", EvaluationNotFound),
	}
}

func extract(raw, tag, fallback string) string {
	open := "<" + tag + ">"
	close := "</" + tag + ">"

	start := strings.Index(raw, open)
	if start < 0 {
		return fallback
	}
	rest := raw[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return fallback
	}
	return strings.TrimSpace(rest[:end])
}
