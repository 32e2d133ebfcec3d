package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/getdukka/chatseller-api-sub001/internal/convo"
)

// GenkitCompleter runs completions through a Genkit-registered model.
// Tools are attached only when refs are provided; the secondary backend
// is built without them, keeping tool calling a primary-only capability.
type GenkitCompleter struct {
	g         *genkit.Genkit
	name      string
	model     string
	tools     []ai.ToolRef
	maxTokens int
	logger    *slog.Logger
}

// NewGenkitCompleter wraps a model registered on g. model is the full
// Genkit model name, e.g. "googleai/gemini-2.5-flash" or
// "openai/gpt-4o-mini". tools may be nil.
func NewGenkitCompleter(g *genkit.Genkit, name, model string, maxTokens int, tools []ai.ToolRef, logger *slog.Logger) *GenkitCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenkitCompleter{
		g:         g,
		name:      name,
		model:     model,
		tools:     tools,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Name identifies the backend in logs.
func (c *GenkitCompleter) Name() string { return c.name }

// Complete sends the system prompt and full turn history to the model.
// Tool requests are returned to the caller instead of being executed by
// the framework; the dispatcher resolves them against the catalog.
func (c *GenkitCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]*ai.Message, 0, len(req.History))
	for _, turn := range req.History {
		switch turn.Role {
		case convo.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
		}
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.model),
		ai.WithSystem(req.System),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(req.Temperature)),
			MaxOutputTokens: int32(c.maxTokens),
		}),
	}
	if len(c.tools) > 0 {
		opts = append(opts, ai.WithTools(c.tools...), ai.WithReturnToolRequests(true))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating with %s: %w", c.model, err)
	}

	out := &Response{Text: resp.Text()}
	for _, tr := range resp.ToolRequests() {
		args, _ := tr.Input.(map[string]any)
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: tr.Name, Args: args})
	}

	c.logger.Debug("completion succeeded",
		"backend", c.name,
		"model", c.model,
		"tool_calls", len(out.ToolCalls),
		"text_len", len(out.Text))
	return out, nil
}
