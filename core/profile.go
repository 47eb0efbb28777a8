package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profile holds the user's style attributes. It is loaded once per agent
// lifetime and shared read-only by every generation node; only the
// persistence step rewrites it.
type Profile map[string]any

// NewProfile returns the empty-profile shape: every known key present
// with an empty value. Callers can rely on the keys existing.
func NewProfile() Profile {
	now := time.Now().Format(time.RFC3339)
	return Profile{
		"personality_traits":  map[string]any{},
		"interests":           []any{},
		"communication_style": map[string]any{},
		"expertise_areas":     []any{},
		"decision_patterns":   map[string]any{},
		"created_at":          now,
		"last_updated":        now,
	}
}

// Render produces a deterministic text rendering of the profile with
// stable key ordering, suitable for prompt inclusion.
func (p Profile) Render() string {
	if len(p) == 0 {
		return "No profile data available"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v, err := json.Marshal(p[k])
		if err != nil {
			v = []byte(`""`)
		}
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	return strings.TrimRight(b.String(), "\n")
}
