package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/chitralabs/chitra/internal/logging"
	"github.com/chitralabs/chitra/internal/store"
	"github.com/chitralabs/chitra/internal/voiceio"
)

// First-run onboarding: a short scripted conversation that seeds memory
// with initial context. Every answer lands in the memory store with
// confidence 1.0 and source "stated". Runs on first boot only, detected by
// an empty memory store.

// answerShape selects how a raw answer becomes memory content. A closed
// set of named shapes keeps the step table plain data.
type answerShape int

const (
	shapeVerbatim   answerShape = iota // store the answer as given
	shapeName                          // "The user's name is <answer>"
	shapeSchedule                      // "Work schedule: <answer>"
	shapeInputMode                     // classified to "Prefers text/voice input mode"
)

type onboardingStep struct {
	question string
	category string
	subject  string
	shape    answerShape
}

var onboardingSteps = []onboardingStep{
	{
		question: "Hi, I'm Chitra. I'll be your companion on this device. Let's get to know each other. What's your name?",
		category: store.CategoryFact,
		subject:  "name",
		shape:    shapeName,
	},
	{
		question: "Nice to meet you! Who are the key people in your life? Tell me their names and how they're related to you.",
		category: store.CategoryRelationship,
		subject:  "key_people",
		shape:    shapeVerbatim,
	},
	{
		question: "What does your typical work schedule look like? When do you usually start and finish?",
		category: store.CategoryFact,
		subject:  "work_schedule",
		shape:    shapeSchedule,
	},
	{
		question: "Last one: would you rather talk to me by voice, or type?",
		category: store.CategoryPreference,
		subject:  "input_mode",
		shape:    shapeInputMode,
	},
}

// Onboarding runs the first-boot conversation.
type Onboarding struct {
	memory *store.Memory
	device voiceio.Device
}

// NewOnboarding wires the flow to the memory store and I/O device.
func NewOnboarding(memory *store.Memory, device voiceio.Device) *Onboarding {
	return &Onboarding{memory: memory, device: device}
}

// ShouldRun reports whether this is a first boot. Any active memory entry
// means onboarding already happened (or the store was seeded).
func (o *Onboarding) ShouldRun() (bool, error) {
	has, err := o.memory.HasActiveEntries()
	if err != nil {
		return false, fmt.Errorf("first-boot check: %w", err)
	}
	return !has, nil
}

// Run walks the step script, stores each answer, and closes with a summary
// of what Chitra now knows.
func (o *Onboarding) Run(ctx context.Context) error {
	logging.Infof("First boot, running onboarding")

	answers := make([]string, 0, len(onboardingSteps))
	for _, step := range onboardingSteps {
		answer, err := o.ask(ctx, step.question)
		if err != nil {
			return fmt.Errorf("onboarding interrupted: %w", err)
		}
		answers = append(answers, answer)

		content := o.shapeAnswer(step.shape, answer)
		_, err = o.memory.Store(store.MemoryEntry{
			Category:   step.category,
			Subject:    step.subject,
			Content:    content,
			Confidence: 1.0,
			Source:     store.SourceStated,
		})
		if err != nil {
			logging.Warnf("Onboarding: failed to store %s: %v", step.subject, err)
		}
	}

	summary := fmt.Sprintf(
		"Thanks, %s. I'll remember all of that. I now know who matters to you, when you work, and how you like to talk to me. I'm here whenever you need me.",
		firstWord(answers[0]))
	if err := o.device.Display("", summary); err != nil {
		logging.Warnf("Onboarding summary display failed: %v", err)
	}
	if err := o.device.Speak(ctx, summary); err != nil {
		logging.Warnf("Onboarding summary speak failed: %v", err)
	}
	return nil
}

// ask prompts one question and reads answers until one is non-empty.
func (o *Onboarding) ask(ctx context.Context, question string) (string, error) {
	if err := o.device.Display("", question); err != nil {
		logging.Warnf("Onboarding display failed: %v", err)
	}
	if err := o.device.Speak(ctx, question); err != nil {
		logging.Warnf("Onboarding speak failed: %v", err)
	}
	for {
		utterance, err := o.device.Listen(ctx)
		if err != nil {
			return "", err
		}
		if utterance != nil && strings.TrimSpace(utterance.Text) != "" {
			return strings.TrimSpace(utterance.Text), nil
		}
	}
}

func (o *Onboarding) shapeAnswer(shape answerShape, answer string) string {
	switch shape {
	case shapeName:
		return fmt.Sprintf("The user's name is %s", answer)
	case shapeSchedule:
		return fmt.Sprintf("Work schedule: %s", answer)
	case shapeInputMode:
		mode := classifyInputMode(answer)
		if err := o.device.SetInputMode(mode); err != nil {
			logging.Warnf("Onboarding: could not switch input mode to %s: %v", mode, err)
		}
		return fmt.Sprintf("Prefers %s input mode", mode)
	default:
		return answer
	}
}

var voiceModeKeywords = []string{"voice", "speak", "speaking", "talk", "talking", "audio", "mic", "microphone"}

// classifyInputMode maps a free-text preference to "voice" or "text". It
// only commits to voice on an explicit voice keyword; anything ambiguous
// or unrecognized defaults to text, the safer mode on unknown hardware.
func classifyInputMode(answer string) string {
	lowered := strings.ToLower(answer)
	for _, kw := range voiceModeKeywords {
		if strings.Contains(lowered, kw) {
			return "voice"
		}
	}
	return "text"
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "there"
	}
	return strings.Trim(fields[0], ".,!")
}
