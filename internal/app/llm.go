package app

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LLMClient is the completion collaborator the pipeline depends on.
// CompleteStreaming must invoke onToken for each generated chunk and
// return the full assembled text.
type LLMClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	CompleteStreaming(ctx context.Context, messages []Message, onToken func(string)) (string, error)
}

// OllamaClient talks to a local Ollama server through langchaingo.
type OllamaClient struct {
	llm         *ollama.LLM
	model       string
	maxTokens   int
	temperature float64
	maxRetries  int
}

func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.OllamaURL),
	)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{
		llm:         llm,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  2,
	}, nil
}

func (c *OllamaClient) Complete(ctx context.Context, messages []Message) (string, error) {
	return c.generate(ctx, messages, nil)
}

func (c *OllamaClient) CompleteStreaming(ctx context.Context, messages []Message, onToken func(string)) (string, error) {
	return c.generate(ctx, messages, onToken)
}

func (c *OllamaClient) generate(ctx context.Context, messages []Message, onToken func(string)) (string, error) {
	content := toLangchainMessages(messages)

	opts := []llms.CallOption{
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	}
	if onToken != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onToken(string(chunk))
			return nil
		}))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err := c.llm.GenerateContent(ctx, content, opts...)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("model returned no choices")
			continue
		}
		text := CleanResponse(resp.Choices[0].Content)
		// Reasoning models occasionally emit nothing but a think block;
		// an empty cleaned response is worth one more attempt.
		if strings.TrimSpace(text) == "" {
			lastErr = errors.New("model returned empty response")
			continue
		}
		return text, nil
	}
	return "", lastErr
}

func toLangchainMessages(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

var (
	thinkBlockRe  = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkTagRe    = regexp.MustCompile(`(?i)</?think>`)
	tripleBlankRe = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// CleanResponse strips reasoning-model think blocks and collapses
// excess blank lines.
func CleanResponse(text string) string {
	if text == "" {
		return text
	}
	text = thinkBlockRe.ReplaceAllString(text, "")
	text = thinkTagRe.ReplaceAllString(text, "")
	text = tripleBlankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
