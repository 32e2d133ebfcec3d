// Package provider wraps hosted completion services behind a fallback
// chain: a tools-enabled primary, a tools-disabled secondary, and a
// canned apology when both fail. Callers always get a conversational
// reply.
package provider

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/getdukka/chatseller-api-sub001/internal/convo"
)

// Apology is returned when every completer fails. The turn is still a
// success from the caller's perspective.
const Apology = "Je suis vraiment désolée, je rencontre un petit souci technique. " +
	"Pouvez-vous reformuler votre message dans un instant ?"

// Request is one completion call.
type Request struct {
	System      string
	History     []convo.Turn
	Temperature float64
}

// ToolCall is a structured action the model requested instead of, or
// alongside, free text.
type ToolCall struct {
	Name string
	Args map[string]any
}

// StringArg returns the named argument as a string, "" when absent or
// not a string.
func (t ToolCall) StringArg(name string) string {
	s, _ := t.Args[name].(string)
	return s
}

// IntArg returns the named argument as an int. JSON numbers decode as
// float64, so both are accepted.
func (t ToolCall) IntArg(name string) int {
	switch v := t.Args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// Response is what a completer produced.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Completer is a single hosted completion backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Chain tries completers in order and degrades to Apology. The rate
// limiter spans all backends so a burst of turns cannot exhaust
// provider quota.
type Chain struct {
	completers []Completer
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLimiter sets the shared rate limiter. nil disables limiting.
func WithLimiter(l *rate.Limiter) ChainOption {
	return func(c *Chain) { c.limiter = l }
}

// WithTimeout bounds each individual completer call.
func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

// NewChain creates a fallback chain. logger may be nil.
func NewChain(logger *slog.Logger, completers []Completer, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{
		completers: completers,
		timeout:    30 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete runs the chain. It never returns an error: if every backend
// fails or the chain is empty, the response text is Apology.
func (c *Chain) Complete(ctx context.Context, req Request) *Response {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Warn("rate limiter wait aborted", "error", err)
			return &Response{Text: Apology}
		}
	}

	for _, completer := range c.completers {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := completer.Complete(callCtx, req)
		cancel()
		if err != nil {
			c.logger.Warn("completion failed, trying next backend",
				"backend", completer.Name(),
				"error", err)
			continue
		}
		if resp == nil || (resp.Text == "" && len(resp.ToolCalls) == 0) {
			c.logger.Warn("completion returned nothing", "backend", completer.Name())
			continue
		}
		return resp
	}

	c.logger.Error("all completion backends failed", "backends", len(c.completers))
	return &Response{Text: Apology}
}
