package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
)

// neglectedDaysThreshold is how many days without interaction makes a
// contact worth surfacing.
const neglectedDaysThreshold = 7

// maxNeglectedSurfaced caps how many neglected contacts one tick mentions.
const maxNeglectedSurfaced = 3

// ProactiveLoop surfaces relevant information unprompted. On every tick it
// gathers fired reminders, imminent events, neglected contacts, and overdue
// tasks, and asks the model whether any of it is worth speaking about. It
// never interrupts an active conversation.
type ProactiveLoop struct {
	core     *Core
	interval time.Duration
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewProactiveLoop creates the loop; Start arms it.
func NewProactiveLoop(core *Core, interval time.Duration) *ProactiveLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProactiveLoop{core: core, interval: interval}
}

// Start schedules the tick on the configured interval. Each tick recovers
// its own panics so one bad tick never kills the loop. Ticks never
// overlap: a tick still in its model round trip makes the next firing a
// no-op, so at most one proactive evaluation runs at a time.
func (p *ProactiveLoop) Start() error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	spec := fmt.Sprintf("@every %s", p.interval)
	_, err := p.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("Proactive tick panicked: %v", r)
			}
		}()
		p.Tick(p.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule proactive loop: %w", err)
	}

	p.cron.Start()
	logging.Infof("Proactive loop started (interval %s)", p.interval)
	return nil
}

// Stop cancels any in-flight tick and waits for running jobs to drain.
// Callers must Stop before closing the gateway.
func (p *ProactiveLoop) Stop() {
	if p.cron == nil {
		return
	}
	p.cancel()
	<-p.cron.Stop().Done()
	logging.Infof("Proactive loop stopped")
}

// Tick is one proactive evaluation. It exits immediately when the user is
// mid-conversation, gathers the signal bundle, and makes a single model
// call to decide whether to speak.
func (p *ProactiveLoop) Tick(ctx context.Context) {
	if p.core.UserActive() {
		logging.Debugf("Proactive tick skipped, user is active")
		return
	}

	parts := p.gatherSignals()
	if len(parts) == 0 {
		logging.Debugf("Proactive tick, nothing to evaluate")
		return
	}

	message := fmt.Sprintf(llm.ProactivePromptTemplate, strings.Join(parts, "\n"))
	systemPrompt, history := p.core.assembler.Assemble(p.core.History())
	resp := p.core.gateway.Call(ctx, systemPrompt, message, history)

	if !resp.ShouldSpeak || resp.Response == "" {
		logging.Debugf("Proactive tick, nothing worth surfacing")
		return
	}

	// The model round trip takes a while; the user may have started
	// talking since the entry check. Dropping the message beats
	// interrupting.
	if p.core.UserActive() {
		logging.Infof("Proactive message ready but user became active, dropping")
		return
	}

	logging.Infof("Proactive message: %.80s", resp.Response)
	if err := p.core.device.Display("", resp.Response); err != nil {
		logging.Warnf("Proactive display failed: %v", err)
	}
	if err := p.core.device.Speak(ctx, resp.Response); err != nil {
		logging.Warnf("Proactive speak failed: %v", err)
	}

	p.dismissFired()
	p.core.StoreMemories(resp.MemoryStore)
}

// gatherSignals queries the four proactive sources. Each query is guarded
// on its own; a failing source logs and contributes nothing while the
// others still do.
func (p *ProactiveLoop) gatherSignals() []string {
	var parts []string

	fired, err := p.core.stores.Reminders.GetFired()
	if err != nil {
		logging.Errorf("Proactive: reminder check failed: %v", err)
	} else if len(fired) > 0 {
		lines := []string{"Triggered reminders:"}
		for _, r := range fired {
			at := r.TriggerAt
			if len(at) > 16 {
				at = at[:16]
			}
			lines = append(lines, fmt.Sprintf("- %s (was due at %s)", r.Text, at))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	upcoming, err := p.core.stores.Calendar.GetUpcoming(1)
	if err != nil {
		logging.Errorf("Proactive: calendar check failed: %v", err)
	} else if len(upcoming) > 0 {
		lines := []string{"Upcoming events (next hour):"}
		for _, e := range upcoming {
			entry := fmt.Sprintf("- %s at %s (%d min)", e.Title, e.Time, e.DurationMinutes)
			if len(e.Participants) > 0 {
				entry += " with " + strings.Join(e.Participants, ", ")
			}
			lines = append(lines, entry)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	neglected, err := p.core.stores.Contacts.GetNeglected(neglectedDaysThreshold)
	if err != nil {
		logging.Errorf("Proactive: contacts check failed: %v", err)
	} else if len(neglected) > 0 {
		if len(neglected) > maxNeglectedSurfaced {
			neglected = neglected[:maxNeglectedSurfaced]
		}
		lines := []string{"People you haven't been in touch with recently:"}
		for _, c := range neglected {
			entry := "- " + c.Name
			if c.Relationship != "" {
				entry += fmt.Sprintf(" (%s)", c.Relationship)
			}
			entry += ", last interaction: " + c.LastInteraction
			lines = append(lines, entry)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	overdue, err := p.core.stores.Tasks.GetOverdue()
	if err != nil {
		logging.Errorf("Proactive: tasks check failed: %v", err)
	} else if len(overdue) > 0 {
		lines := []string{"Overdue tasks:"}
		for _, t := range overdue {
			lines = append(lines, fmt.Sprintf("- %s (due: %s, priority: %s)", t.Title, t.DueDate, t.Priority))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	return parts
}

// dismissFired marks every currently fired reminder as dismissed after a
// proactive message has surfaced them, so they don't re-fire next tick.
func (p *ProactiveLoop) dismissFired() {
	fired, err := p.core.stores.Reminders.GetFired()
	if err != nil {
		logging.Errorf("Failed to list fired reminders for dismissal: %v", err)
		return
	}
	for _, r := range fired {
		if _, err := p.core.stores.Reminders.Dismiss(r.ID); err != nil {
			logging.Errorf("Failed to dismiss reminder %s: %v", r.ID, err)
			continue
		}
		logging.Infof("Auto-dismissed fired reminder: %s", r.ID)
	}
}
