package llm

import (
	"context"
	"time"

	"github.com/chitralabs/chitra/internal/logging"
)

// MaxRetries is how many correction round trips the gateway attempts after
// a malformed reply before giving up.
const MaxRetries = 2

// Gateway wraps a Provider with the structured-output contract: JSON mode,
// lenient parsing, correction retries, and a fixed fallback. Call never
// returns an error; model flakiness stops here.
type Gateway struct {
	provider Provider
	timeout  time.Duration
}

// NewGateway creates a gateway over the given provider. The timeout bounds
// each individual round trip; expiry counts as a transport failure.
func NewGateway(provider Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Gateway{provider: provider, timeout: timeout}
}

// Call sends [system, ...history, user] to the model and returns a
// well-formed Response.
//
// Transport failures produce the fallback immediately, since a dead endpoint
// won't get better on the next attempt. Malformed or invalid output is
// retried up to MaxRetries times with the bad reply and a correction
// instruction appended; exhausted retries also produce the fallback.
func (g *Gateway) Call(ctx context.Context, systemPrompt, userMessage string, history []Message) *Response {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		raw, err := g.complete(ctx, systemPrompt, messages)
		if err != nil {
			logging.Errorf("LLM transport failure (%s): %v", g.provider.ID(), err)
			return fallbackResponse()
		}

		resp, err := parseResponse(raw)
		if err == nil {
			return resp
		}

		logging.Warnf("LLM returned malformed output (attempt %d/%d): %v; raw: %.200s",
			attempt+1, MaxRetries+1, err, raw)
		messages = append(messages,
			Message{Role: "assistant", Content: raw},
			Message{Role: "user", Content: CorrectionPrompt},
		)
	}

	logging.Errorf("LLM output unusable after %d attempts, returning fallback", MaxRetries+1)
	return fallbackResponse()
}

func (g *Gateway) complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.provider.Complete(callCtx, &ChatRequest{
		System:   systemPrompt,
		Messages: messages,
		JSONMode: true,
	})
}

// Close releases the provider's network resources.
func (g *Gateway) Close() error {
	return g.provider.Close()
}
