package voiceio

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chitralabs/chitra/internal/logging"
)

func init() {
	logging.Disable()
}

func testConsole(input string) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Console{
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
		mode:   "text",
	}, out
}

func TestConsoleListen(t *testing.T) {
	c, _ := testConsole("  hello chitra  \n")

	u, err := c.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	if u.Text != "hello chitra" {
		t.Errorf("text = %q, want trimmed input", u.Text)
	}
	if u.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for typed input", u.Confidence)
	}
}

func TestConsoleListenEOF(t *testing.T) {
	c, _ := testConsole("")
	if _, err := c.Listen(context.Background()); err == nil {
		t.Error("expected error at end of input")
	}
}

func TestConsoleListenCancelled(t *testing.T) {
	c, _ := testConsole("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// With a cancelled context either the cancellation or the read error
	// may win the race; both are errors.
	if _, err := c.Listen(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestConsoleSpeakEmptyIsNoOp(t *testing.T) {
	c, _ := testConsole("")
	if err := c.Speak(context.Background(), ""); err != nil {
		t.Errorf("empty speak must succeed, got %v", err)
	}
	if err := c.Speak(context.Background(), "hello"); err != nil {
		t.Errorf("text-mode speak must succeed, got %v", err)
	}
}

func TestConsoleDisplay(t *testing.T) {
	c, out := testConsole("")

	if err := c.Display("question", "answer"); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "question") || !strings.Contains(s, "answer") {
		t.Errorf("display output missing text: %q", s)
	}

	out.Reset()
	if err := c.Display("", "only assistant"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "you>") {
		t.Errorf("empty user side should not render: %q", out.String())
	}
}

func TestConsoleSetInputMode(t *testing.T) {
	c, _ := testConsole("")

	if err := c.SetInputMode("voice"); err != nil {
		t.Fatalf("voice mode rejected: %v", err)
	}
	if c.InputMode() != "voice" {
		t.Errorf("mode = %q, want voice", c.InputMode())
	}
	if err := c.SetInputMode("telepathy"); err == nil {
		t.Error("expected error for invalid mode")
	}
	if c.InputMode() != "voice" {
		t.Error("failed switch must not change the mode")
	}
}
