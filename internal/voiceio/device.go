// Package voiceio defines the conversational I/O contract the orchestrator
// speaks through, plus a terminal implementation. Speech capture and
// synthesis backends plug in behind the same Device interface.
package voiceio

import "context"

// Utterance is one captured piece of user input.
type Utterance struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Status is the acknowledgement shape output operations return to the
// dispatcher.
type Status struct {
	Status string `json:"status"`
}

// Device is the conversational interface layer. Listen must return
// eventually; Speak must succeed as a no-op on empty text; Display accepts
// an empty string for either side of the exchange.
type Device interface {
	Listen(ctx context.Context) (*Utterance, error)
	Speak(ctx context.Context, text string) error
	Display(userText, assistantText string) error
	SetInputMode(mode string) error
	InputMode() string
}
