package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chitralabs/chitra/internal/db"
	"github.com/chitralabs/chitra/internal/store"
)

// SeedCmd creates the seed command, which wipes the database and loads the
// demo scenario: Bala, his mother Amma he hasn't called in 5 days, a team
// meeting in half an hour, and a backlog of tasks for the proactive loop
// to notice.
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load the demo scenario",
		Long: `Wipes chitra.db and pre-populates contacts, calendar, tasks and memory
with the demo scenario data. Dates are relative to now, so upcoming
meetings, neglected contacts and overdue tasks line up regardless of when
you run it.

Safe to run multiple times. After seeding, boot Chitra normally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func runSeed() error {
	c := AppConfig
	if err := c.EnsureDataDir(); err != nil {
		return fmt.Errorf("initialize data directory: %w", err)
	}

	// Start from a clean slate; the seed replaces everything, including
	// what onboarding would have collected.
	if err := os.Remove(c.DBPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	database, err := db.Open(c.DBPath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	contacts := store.NewContacts(database)
	calendar := store.NewCalendar(database)
	tasks := store.NewTasks(database)
	memory := store.NewMemory(database)

	ids, err := seedContacts(contacts)
	if err != nil {
		return err
	}
	if err := seedCalendar(calendar); err != nil {
		return err
	}
	if err := seedTasks(tasks); err != nil {
		return err
	}
	if err := seedMemory(memory, ids); err != nil {
		return err
	}

	fmt.Println("Demo data seeded. Boot Chitra with: chitra")
	return nil
}

// seedContacts creates Amma (5 days silent, past the neglect threshold),
// Ravi (recent) and Priya (today), returning their ids by name.
func seedContacts(contacts *store.Contacts) (map[string]string, error) {
	today := time.Now()
	records := []struct {
		contact store.Contact
		daysAgo int
	}{
		{store.Contact{
			Name:                    "Amma",
			Relationship:            "mother",
			Phone:                   "+91-9876543210",
			Notes:                   "Lives in Chennai. Prefers evening calls after 6pm.",
			CommunicationPreference: "phone call",
		}, 5},
		{store.Contact{
			Name:                    "Ravi",
			Relationship:            "best friend",
			Phone:                   "+91-9876543211",
			Email:                   "ravi@example.com",
			Notes:                   "College friend. Works in Bangalore.",
			CommunicationPreference: "text message",
		}, 2},
		{store.Contact{
			Name:                    "Priya",
			Relationship:            "colleague",
			Email:                   "priya@work.com",
			Notes:                   "Works on the same team. Project lead.",
			CommunicationPreference: "slack",
		}, 0},
	}

	ids := make(map[string]string, len(records))
	for _, r := range records {
		created, err := contacts.Create(r.contact)
		if err != nil {
			return nil, fmt.Errorf("seed contact %s: %w", r.contact.Name, err)
		}
		lastInteraction := today.AddDate(0, 0, -r.daysAgo).Format("2006-01-02")
		if _, err := contacts.Update(created.ID, map[string]any{"last_interaction": lastInteraction}); err != nil {
			return nil, fmt.Errorf("seed contact %s: %w", r.contact.Name, err)
		}
		ids[created.Name] = created.ID
		fmt.Printf("  Contact: %s (last interaction: %s)\n", created.Name, lastInteraction)
	}
	return ids, nil
}

// seedCalendar puts a team meeting 30 minutes from now so it shows up in
// the upcoming-events window, and leaves the afternoon free.
func seedCalendar(calendar *store.Calendar) error {
	meeting := time.Now().Add(30 * time.Minute)
	event := store.Event{
		Title:           "Team meeting",
		Date:            meeting.Format("2006-01-02"),
		Time:            meeting.Format("15:04"),
		DurationMinutes: 60,
		Notes:           "Weekly standup and project review",
		Participants:    []string{"Priya", "Arun", "Deepa"},
	}
	if _, err := calendar.Create(event); err != nil {
		return fmt.Errorf("seed event: %w", err)
	}
	fmt.Printf("  Event: %s at %s on %s\n", event.Title, event.Time, event.Date)
	return nil
}

func seedTasks(tasks *store.Tasks) error {
	today := time.Now()
	friday := nextFriday(today)

	records := []store.Task{
		{
			Title:    "Review project notes",
			Notes:    "Go through last week's meeting notes and prepare summary",
			DueDate:  friday.Format("2006-01-02"),
			Priority: "normal",
		},
		{
			Title:    "Update documentation",
			Notes:    "Add new API endpoints to the docs",
			DueDate:  today.AddDate(0, 0, 3).Format("2006-01-02"),
			Priority: "low",
		},
		{
			Title:    "Prepare presentation for Friday",
			Notes:    "Quarterly review slides",
			DueDate:  friday.Format("2006-01-02"),
			Priority: "high",
		},
	}
	for _, t := range records {
		if _, err := tasks.Create(t); err != nil {
			return fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		fmt.Printf("  Task: %s (due: %s, priority: %s)\n", t.Title, t.DueDate, t.Priority)
	}
	return nil
}

// seedMemory stores what onboarding would have collected, plus the
// preference that drives the demo: Bala wants to call his mother more.
func seedMemory(memory *store.Memory, contactIDs map[string]string) error {
	entries := []store.MemoryEntry{
		{
			Category:   store.CategoryFact,
			Subject:    "name",
			Content:    "The user's name is Bala",
			Confidence: 1.0,
			Source:     store.SourceStated,
		},
		{
			Category:   store.CategoryPreference,
			Subject:    "input_mode",
			Content:    "Prefers text input mode",
			Confidence: 1.0,
			Source:     store.SourceStated,
		},
		{
			Category:   store.CategoryRelationship,
			Subject:    "key_people",
			Content:    "Amma is his mother, lives in Chennai. Ravi is his best friend from college.",
			Confidence: 1.0,
			Source:     store.SourceStated,
		},
		{
			Category:   store.CategoryFact,
			Subject:    "work_schedule",
			Content:    "Work schedule: Usually starts work around 9am, finishes by 6pm. Works Monday to Friday.",
			Confidence: 1.0,
			Source:     store.SourceStated,
		},
		{
			Category:   store.CategoryPreference,
			Subject:    "calling_mother",
			Content:    "Bala mentioned last week that he wants to call his mother more often. He feels he hasn't been keeping in touch enough.",
			Confidence: 1.0,
			Source:     store.SourceStated,
			ContactID:  contactIDs["Amma"],
		},
		{
			Category:   store.CategoryObservation,
			Subject:    "morning_routine",
			Content:    "Bala usually checks in with Chitra first thing in the morning around 8:30-9am before starting work.",
			Confidence: 0.8,
			Source:     store.SourceInferred,
		},
		{
			Category:   store.CategoryRelationship,
			Subject:    "amma",
			Content:    "Amma (mother) lives in Chennai. Prefers phone calls in the evening after 6pm.",
			Confidence: 1.0,
			Source:     store.SourceStated,
			ContactID:  contactIDs["Amma"],
		},
		{
			Category:   store.CategoryRelationship,
			Subject:    "ravi",
			Content:    "Ravi is Bala's best friend from college. Lives in Bangalore. They text regularly.",
			Confidence: 1.0,
			Source:     store.SourceStated,
			ContactID:  contactIDs["Ravi"],
		},
		{
			Category:   store.CategoryPreference,
			Subject:    "project_notes",
			Content:    "Bala noted this week that he wants to review his project notes. He hasn't had time yet.",
			Confidence: 1.0,
			Source:     store.SourceStated,
		},
	}

	for _, e := range entries {
		if _, err := memory.Store(e); err != nil {
			return fmt.Errorf("seed memory %s: %w", e.Subject, err)
		}
		fmt.Printf("  Memory: %s/%s\n", e.Category, e.Subject)
	}
	return nil
}

// nextFriday returns the upcoming Friday, or today if it is Friday.
func nextFriday(t time.Time) time.Time {
	days := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, days)
}
