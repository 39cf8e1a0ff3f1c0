package orchestrator

import (
	"fmt"
	"strings"

	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
	"github.com/chitralabs/chitra/internal/persona"
	"github.com/chitralabs/chitra/internal/store"
	"github.com/chitralabs/chitra/internal/sysstate"
)

// Assembler builds the system prompt injected into every model call. The
// assembled prompt is what makes the model "know" the user on every call:
// identity, memory context, system state, near-term events and reminders,
// capability catalog, and the response format contract.
type Assembler struct {
	persona   *persona.Loader
	memory    *store.Memory
	calendar  *store.Calendar
	reminders *store.Reminders
}

// NewAssembler wires the assembler to its context sources.
func NewAssembler(p *persona.Loader, memory *store.Memory, calendar *store.Calendar, reminders *store.Reminders) *Assembler {
	return &Assembler{persona: p, memory: memory, calendar: calendar, reminders: reminders}
}

// Assemble gathers every context source and joins the non-empty sections
// with blank lines. History is passed through untouched. Any gathering
// failure degrades to the minimal identity+catalog+format prompt so a turn
// can still complete.
func (a *Assembler) Assemble(history []llm.Message) (string, []llm.Message) {
	identity := a.persona.Identity()

	sections, err := a.gather(identity)
	if err != nil {
		logging.Errorf("Context assembly failed: %v", err)
		minimal := strings.Join([]string{identity, llm.CapabilityCatalog, llm.ResponseFormatInstruction}, "\n\n")
		return minimal, history
	}
	return strings.Join(sections, "\n\n"), history
}

func (a *Assembler) gather(identity string) ([]string, error) {
	memoryBlock, err := a.memory.Context()
	if err != nil {
		return nil, fmt.Errorf("memory context: %w", err)
	}
	upcomingEvents, err := a.calendar.GetUpcoming(1)
	if err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	upcomingReminders, err := a.reminders.ListUpcoming(1)
	if err != nil {
		return nil, fmt.Errorf("upcoming reminders: %w", err)
	}

	sections := []string{identity}
	if memoryBlock != "" {
		sections = append(sections, memoryBlock)
	}
	if block := formatSystemState(sysstate.Get()); block != "" {
		sections = append(sections, block)
	}
	if block := formatUpcomingEvents(upcomingEvents); block != "" {
		sections = append(sections, block)
	}
	if block := formatUpcomingReminders(upcomingReminders); block != "" {
		sections = append(sections, block)
	}
	sections = append(sections, llm.CapabilityCatalog, llm.ResponseFormatInstruction)
	return sections, nil
}

func formatSystemState(s sysstate.Snapshot) string {
	dt := s.DateTime
	if len(dt) > 16 {
		dt = dt[:16]
	}
	line := fmt.Sprintf("Current state: It is %s, %s. Time: %s.", s.TimeOfDay, s.DayOfWeek, dt)
	if s.BatteryPercent >= 0 {
		line += fmt.Sprintf(" Battery: %d%%.", s.BatteryPercent)
	}
	return line
}

func formatUpcomingEvents(events []store.Event) string {
	if len(events) == 0 {
		return ""
	}
	lines := []string{"Upcoming events:"}
	for _, e := range events {
		entry := fmt.Sprintf("- %s at %s (%d min)", e.Title, e.Time, e.DurationMinutes)
		if len(e.Participants) > 0 {
			entry += " with " + strings.Join(e.Participants, ", ")
		}
		lines = append(lines, entry)
	}
	return strings.Join(lines, "\n")
}

func formatUpcomingReminders(reminders []store.Reminder) string {
	if len(reminders) == 0 {
		return ""
	}
	lines := []string{"Upcoming reminders:"}
	for _, r := range reminders {
		at := r.TriggerAt
		if len(at) > 16 {
			at = at[:16]
		}
		lines = append(lines, fmt.Sprintf("- %s (at %s)", r.Text, at))
	}
	return strings.Join(lines, "\n")
}
