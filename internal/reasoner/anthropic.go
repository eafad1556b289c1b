package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"superyield/internal/config"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-5"
	defaultAnthropicMaxTokens = 2000
)

// Anthropic talks to the messages API. Structured replies are obtained by
// forcing a single tool call whose input schema is the reply schema.
type Anthropic struct {
	client anthropic.Client
	model  string
}

func NewAnthropic(cfg config.ReasonerConfig) (*Anthropic, error) {
	key := strings.TrimSpace(cfg.AnthropicAPIKey)
	if key == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultAnthropicModel
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}, nil
}

func (a *Anthropic) Model() string { return a.model }

func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	msg, err := a.client.Messages.New(ctx, a.params(req))
	if err != nil {
		return "", fmt.Errorf("anthropic: message: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			if req.Schema != nil && block.Name == req.Schema.Name {
				raw, err := json.Marshal(block.Input)
				if err != nil {
					return "", fmt.Errorf("anthropic: tool input: %w", err)
				}
				return string(raw), nil
			}
		case "text":
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

func (a *Anthropic) Stream(ctx context.Context, req Request) (Stream, error) {
	// Streams are free text; the schema travels in the prompt instead.
	req.Schema = nil
	return &anthropicStream{s: a.client.Messages.NewStreaming(ctx, a.params(req))}, nil
}

func (a *Anthropic) params(req Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.Schema != nil {
		tool := anthropic.ToolParam{
			Name: req.Schema.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: req.Schema.Definition["properties"],
				Required:   stringList(req.Schema.Definition["required"]),
			},
		}
		if req.Schema.Description != "" {
			tool.Description = anthropic.String(req.Schema.Description)
		}
		p.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		p.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.Schema.Name},
		}
	}
	return p
}

// stringList accepts both the typed form built in code and the []any form a
// schema takes after a JSON round trip.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

type anthropicStream struct {
	s      *ssestream.Stream[anthropic.MessageStreamEventUnion]
	text   string
	closed bool
}

func (s *anthropicStream) Next() bool {
	for s.s.Next() {
		switch evt := s.s.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				s.text = delta.Text
				return true
			}
		}
	}
	return false
}

func (s *anthropicStream) Text() string { return s.text }

func (s *anthropicStream) Err() error {
	if err := s.s.Err(); err != nil {
		return fmt.Errorf("anthropic: stream: %w", err)
	}
	return nil
}

func (s *anthropicStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.s.Close()
}
