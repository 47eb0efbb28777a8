package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicClient implements Client on top of the Anthropic Messages API.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// Option configures the client.
type Option func(*AnthropicClient)

// WithMaxTokens overrides the response token cap.
func WithMaxTokens(n int64) Option {
	return func(c *AnthropicClient) {
		c.maxTokens = n
	}
}

// NewAnthropic creates a client for the given model and sampling
// temperature.
func NewAnthropic(client *anthropic.Client, model string, temperature float64, opts ...Option) *AnthropicClient {
	c := &AnthropicClient{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the prompt as a single user message and concatenates the
// text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// CompleteStructured completes the prompt and parses the reply as JSON.
// Models occasionally wrap JSON in a markdown fence; that is stripped
// before parsing.
func (c *AnthropicClient) CompleteStructured(ctx context.Context, prompt string, out any) error {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	cleaned := stripFence(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("structured output did not parse: %w", err)
	}
	return nil
}

// stripFence removes a surrounding ```json ... ``` fence if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
