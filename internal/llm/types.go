// Package llm is the sole channel to the model endpoint. The gateway
// enforces the structured-output contract and shields the rest of the
// process from an unreliable model: its Call never fails, it degrades.
package llm

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest is one completion request.
type ChatRequest struct {
	System   string
	Messages []Message
	JSONMode bool
}

// Action is a capability call the model asked for.
type Action struct {
	Capability string         `json:"capability"`
	Action     string         `json:"action"`
	Params     map[string]any `json:"params"`
}

// MemoryDraft is a knowledge entry the model wants persisted. The memory
// store enforces the category/source enums on write. Confidence is nil
// when the model omitted the field, which is distinct from an explicit 0.
type MemoryDraft struct {
	Category   string   `json:"category"`
	Subject    string   `json:"subject"`
	Content    string   `json:"content"`
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source"`
	ContactID  string   `json:"contact_id,omitempty"`
}

// Response is the structured reply of one model call. Response is the only
// mandatory field; everything else defaults when absent.
type Response struct {
	Intent      string        `json:"intent"`
	Action      *Action       `json:"action"`
	Response    string        `json:"response"`
	MemoryStore []MemoryDraft `json:"memory_store"`
	ShouldSpeak bool          `json:"should_speak,omitempty"` // proactive calls only
}

// fallbackResponse is returned whenever the model's output is unusable.
func fallbackResponse() *Response {
	return &Response{
		Intent:      "unknown",
		Action:      nil,
		Response:    "I'm sorry, I had trouble processing that. Could you say that again?",
		MemoryStore: []MemoryDraft{},
	}
}
