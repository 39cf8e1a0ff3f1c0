package voiceio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chitralabs/chitra/internal/logging"
)

// Console is the terminal Device: line-based input, printed output. In text
// mode Speak is a silent success; Display already rendered the reply.
type Console struct {
	mu     sync.Mutex
	reader *bufio.Reader
	out    io.Writer
	mode   string
}

// NewConsole creates a terminal device reading stdin and writing stdout.
func NewConsole() *Console {
	return &Console{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		mode:   "text",
	}
}

// Listen blocks for one line of input. EOF (Ctrl+D) surfaces as an error so
// the conversation loop can exit cleanly.
func (c *Console) Listen(ctx context.Context) (*Utterance, error) {
	fmt.Fprint(c.out, "\033[1myou>\033[0m ")

	type lineResult struct {
		text string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := c.reader.ReadString('\n')
		ch <- lineResult{text: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil && res.text == "" {
			return nil, res.err
		}
		return &Utterance{Text: res.text, Confidence: 1.0}, nil
	}
}

// Speak is a no-op in text mode; a speech backend would synthesize here.
// Empty text is always a silent success.
func (c *Console) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	logging.Debugf("Speak (text mode, suppressed): %.60s", text)
	return nil
}

// Display renders one side or both sides of an exchange.
func (c *Console) Display(userText, assistantText string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if userText != "" {
		fmt.Fprintf(c.out, "\033[1myou>\033[0m %s\n", userText)
	}
	if assistantText != "" {
		fmt.Fprintf(c.out, "\033[36mchitra>\033[0m %s\n", assistantText)
	}
	return nil
}

// SetInputMode switches between "text" and "voice". Voice capture has no
// backend on the console device, so voice mode still reads typed lines.
func (c *Console) SetInputMode(mode string) error {
	switch mode {
	case "text", "voice":
		c.mu.Lock()
		c.mode = mode
		c.mu.Unlock()
		logging.Infof("Input mode set to %s", mode)
		return nil
	default:
		return fmt.Errorf("invalid input mode: %s", mode)
	}
}

// InputMode returns the current input mode.
func (c *Console) InputMode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
