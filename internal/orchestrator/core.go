// Package orchestrator is the primary process of Chitra: the conversation
// loop, the context assembler, the proactive background loop, and the
// first-run onboarding flow. It boots on startup and never exits on its own.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chitralabs/chitra/internal/capability"
	"github.com/chitralabs/chitra/internal/config"
	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
	"github.com/chitralabs/chitra/internal/store"
	"github.com/chitralabs/chitra/internal/voiceio"
)

// apologyText is what the user sees when a turn fails outright. Raw errors
// never reach the user.
const apologyText = "I'm sorry, something went wrong on my end. Could you try that again?"

// followupTemplate asks the model for a natural reply that incorporates a
// capability result. First %s is the original user text, second is the
// result JSON.
const followupTemplate = `The user said: %q

You decided to act on this, and the capability call returned:

%s

Now reply to the user naturally, incorporating this result. Respond in the
same JSON format as always, with the reply in "response".`

// Core owns the per-session state: conversation history, the user-activity
// flag, and the wiring between the I/O device, the gateway, and the
// capability registry. One Core per process; its methods are driven from
// the conversation loop, while the proactive loop only reads the activity
// flag and takes history copies through History.
type Core struct {
	gateway   *llm.Gateway
	registry  *capability.Registry
	assembler *Assembler
	stores    capability.Stores
	device    voiceio.Device

	historyMu       sync.Mutex
	history         []llm.Message
	maxHistoryTurns int

	userActive atomic.Bool
}

// NewCore assembles the orchestration core.
func NewCore(cfg *config.Config, gateway *llm.Gateway, registry *capability.Registry, assembler *Assembler, stores capability.Stores, device voiceio.Device) *Core {
	turns := cfg.MaxHistoryTurns
	if turns <= 0 {
		turns = 10
	}
	return &Core{
		gateway:         gateway,
		registry:        registry,
		assembler:       assembler,
		stores:          stores,
		device:          device,
		maxHistoryTurns: turns,
	}
}

// UserActive reports whether a foreground turn is in flight. The proactive
// loop consults this before and after its model round trip.
func (c *Core) UserActive() bool {
	return c.userActive.Load()
}

// History returns a copy of the conversation window, taken under the
// history lock. The proactive tick assembles its prompt from the copy
// while a foreground turn may be appending; only the conversation loop
// mutates the underlying slice.
func (c *Core) History() []llm.Message {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	out := make([]llm.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Run is the conversation loop: listen, process, respond, forever. It
// returns when the context is cancelled or the input device reports
// end of input.
func (c *Core) Run(ctx context.Context) error {
	for {
		utterance, err := c.device.Listen(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("listen: %w", err)
		}
		if utterance == nil || utterance.Text == "" {
			continue
		}

		c.userActive.Store(true)
		reply := c.HandleInput(ctx, utterance.Text)
		if err := c.device.Display(utterance.Text, reply); err != nil {
			logging.Warnf("Display failed: %v", err)
		}
		if err := c.device.Speak(ctx, reply); err != nil {
			logging.Warnf("Speak failed: %v", err)
		}
		c.userActive.Store(false)
	}
}

// HandleInput drives one full turn: assemble context, first model call,
// optional action dispatch plus followup call, memory write-back, history
// update. It never panics out: any fault inside the turn is converted to
// a fixed apology so the conversation loop survives.
func (c *Core) HandleInput(ctx context.Context, userText string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("Turn failed: %v", r)
			response = apologyText
		}
	}()

	systemPrompt, history := c.assembler.Assemble(c.History())

	first := c.gateway.Call(ctx, systemPrompt, userText, history)
	finalText := first.Response
	drafts := first.MemoryStore

	if first.Action != nil {
		result := c.registry.Execute(ctx, first.Action)
		if result != nil {
			followup := c.followupCall(ctx, systemPrompt, history, userText, result)
			finalText = followup.Response
			drafts = append(drafts, followup.MemoryStore...)
		}
	}

	c.StoreMemories(drafts)
	c.updateHistory(userText, finalText)
	return finalText
}

// followupCall issues the second model call of an action turn, embedding
// the dispatch result so the reply can speak to what actually happened.
func (c *Core) followupCall(ctx context.Context, systemPrompt string, history []llm.Message, userText string, result any) *llm.Response {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", result))
	}
	message := fmt.Sprintf(followupTemplate, userText, encoded)
	return c.gateway.Call(ctx, systemPrompt, message, history)
}

// StoreMemories persists model-drafted memory entries. Per-entry failures
// are logged and skipped; one bad draft never blocks the rest or the turn.
func (c *Core) StoreMemories(drafts []llm.MemoryDraft) {
	for _, d := range drafts {
		if d.Content == "" {
			logging.Warnf("Skipping memory draft with no content (subject %q)", d.Subject)
			continue
		}
		// A draft without a confidence field means full confidence; an
		// explicit 0.0 is stored as written.
		confidence := 1.0
		if d.Confidence != nil {
			confidence = *d.Confidence
		}
		_, err := c.stores.Memory.Store(store.MemoryEntry{
			Category:   d.Category,
			Subject:    d.Subject,
			Content:    d.Content,
			Confidence: confidence,
			Source:     d.Source,
			ContactID:  d.ContactID,
		})
		if err != nil {
			logging.Warnf("Memory write-back failed for %q: %v", d.Subject, err)
			continue
		}
		logging.Debugf("Stored memory: %s/%s", d.Category, d.Subject)
	}
}

// updateHistory appends one whole turn and trims the window to the most
// recent 2×maxHistoryTurns messages, oldest first out. The window always
// holds whole turns because exactly two messages enter per call.
func (c *Core) updateHistory(userText, responseText string) {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	c.history = append(c.history,
		llm.Message{Role: "user", Content: userText},
		llm.Message{Role: "assistant", Content: responseText},
	)
	if limit := 2 * c.maxHistoryTurns; len(c.history) > limit {
		c.history = c.history[len(c.history)-limit:]
	}
}
