package store

import (
	"strings"
	"testing"
	"time"
)

func TestMemoryStoreDefaults(t *testing.T) {
	m := NewMemory(openTestDB(t))

	e, err := m.Store(MemoryEntry{
		Category:   CategoryFact,
		Subject:    "name",
		Content:    "The user's name is Bala",
		Confidence: 1.0,
	})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if e.ID == "" {
		t.Error("expected a generated id")
	}
	if e.Source != SourceStated {
		t.Errorf("source = %q, want default %q", e.Source, SourceStated)
	}
	if !e.Active {
		t.Error("new entries must be active")
	}
}

func TestMemoryStoreKeepsExplicitZeroConfidence(t *testing.T) {
	m := NewMemory(openTestDB(t))

	e, err := m.Store(MemoryEntry{
		Category:   CategoryObservation,
		Subject:    "hunch",
		Content:    "Might prefer mornings",
		Confidence: 0,
		Source:     SourceInferred,
	})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if e.Confidence != 0 {
		t.Errorf("confidence = %v, want 0 as written", e.Confidence)
	}

	results, err := m.Search("mornings")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Confidence != 0 {
		t.Errorf("persisted confidence not 0: %+v", results)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	m := NewMemory(openTestDB(t))

	cases := []struct {
		name  string
		entry MemoryEntry
	}{
		{"missing content", MemoryEntry{Category: CategoryFact, Subject: "x"}},
		{"missing subject", MemoryEntry{Category: CategoryFact, Content: "x"}},
		{"bad category", MemoryEntry{Category: "opinion", Subject: "x", Content: "y"}},
		{"bad source", MemoryEntry{Category: CategoryFact, Subject: "x", Content: "y", Source: "guessed"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Store(tc.entry); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMemoryContextSelectionRules(t *testing.T) {
	m := NewMemory(openTestDB(t))

	mustStore := func(e MemoryEntry) *MemoryEntry {
		t.Helper()
		stored, err := m.Store(e)
		if err != nil {
			t.Fatalf("store failed: %v", err)
		}
		return stored
	}

	mustStore(MemoryEntry{Category: CategoryPreference, Subject: "p", Content: "Prefers text input mode", Confidence: 0.1, Source: SourceInferred})
	mustStore(MemoryEntry{Category: CategoryFact, Subject: "f1", Content: "Works from home on Fridays", Confidence: 0.8})
	mustStore(MemoryEntry{Category: CategoryFact, Subject: "f2", Content: "Might be allergic to peanuts", Confidence: 0.79, Source: SourceInferred})
	mustStore(MemoryEntry{Category: CategoryRelationship, Subject: "r", Content: "Amma is his mother"})
	mustStore(MemoryEntry{Category: CategoryObservation, Subject: "o1", Content: "Checks in every morning", Confidence: 0.5, Source: SourceInferred})
	mustStore(MemoryEntry{Category: CategoryObservation, Subject: "o2", Content: "Possibly dislikes calls", Confidence: 0.49, Source: SourceInferred})

	block, err := m.Context()
	if err != nil {
		t.Fatalf("context failed: %v", err)
	}

	for _, want := range []string{
		"Prefers text input mode", // preference: always
		"Works from home",         // fact at the 0.8 boundary
		"Amma is his mother",      // fresh relationship
		"Checks in every morning", // observation at the 0.5 boundary
	} {
		if !strings.Contains(block, want) {
			t.Errorf("context block missing %q:\n%s", want, block)
		}
	}
	for _, reject := range []string{
		"allergic to peanuts", // fact below 0.8
		"dislikes calls",      // observation below 0.5
	} {
		if strings.Contains(block, reject) {
			t.Errorf("context block should not contain %q:\n%s", reject, block)
		}
	}
}

func TestMemoryContextSectionLayout(t *testing.T) {
	m := NewMemory(openTestDB(t))

	if _, err := m.Store(MemoryEntry{Category: CategoryFact, Subject: "f", Content: "fact line", Confidence: 1.0}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store(MemoryEntry{Category: CategoryRelationship, Subject: "r", Content: "relationship line"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store(MemoryEntry{Category: CategoryObservation, Subject: "o", Content: "observation line", Confidence: 0.9, Source: SourceInferred}); err != nil {
		t.Fatal(err)
	}

	block, err := m.Context()
	if err != nil {
		t.Fatal(err)
	}

	want := "About the user:\n- fact line\n\nPeople:\n- relationship line\n\nCurrent patterns:\n- observation line"
	if block != want {
		t.Errorf("context block = %q, want %q", block, want)
	}
}

func TestMemoryContextAgesOutUnreferencedRelationships(t *testing.T) {
	database := openTestDB(t)
	m := NewMemory(database)

	stored, err := m.Store(MemoryEntry{Category: CategoryRelationship, Subject: "old", Content: "An old acquaintance"})
	if err != nil {
		t.Fatal(err)
	}

	// Backdate past the 30-day window.
	backdated := time.Now().AddDate(0, 0, -31).Format("2006-01-02T15:04:05")
	if _, err := database.Exec("UPDATE memories SET last_referenced = ? WHERE id = ?", backdated, stored.ID); err != nil {
		t.Fatal(err)
	}

	block, err := m.Context()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(block, "old acquaintance") {
		t.Errorf("aged-out relationship still in context:\n%s", block)
	}
}

func TestMemoryContextExcludesStaleLowConfidenceObservations(t *testing.T) {
	database := openTestDB(t)
	m := NewMemory(database)

	stored, err := m.Store(MemoryEntry{Category: CategoryObservation, Subject: "stale", Content: "A stale hunch", Confidence: 0.4, Source: SourceInferred})
	if err != nil {
		t.Fatal(err)
	}
	backdated := time.Now().AddDate(0, 0, -61).Format("2006-01-02T15:04:05")
	if _, err := database.Exec("UPDATE memories SET created_at = ? WHERE id = ?", backdated, stored.ID); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		block, err := m.Context()
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(block, "stale hunch") {
			t.Errorf("stale low-confidence observation surfaced on call %d:\n%s", i+1, block)
		}
	}
}

func TestMemoryContextRefreshesIncludedRecency(t *testing.T) {
	database := openTestDB(t)
	m := NewMemory(database)

	stored, err := m.Store(MemoryEntry{Category: CategoryRelationship, Subject: "r", Content: "Ravi is his best friend"})
	if err != nil {
		t.Fatal(err)
	}
	backdated := time.Now().AddDate(0, 0, -29).Format("2006-01-02T15:04:05")
	if _, err := database.Exec("UPDATE memories SET last_referenced = ? WHERE id = ?", backdated, stored.ID); err != nil {
		t.Fatal(err)
	}

	block, err := m.Context()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(block, "Ravi is his best friend") {
		t.Fatalf("29-day-old relationship should still qualify:\n%s", block)
	}

	var refreshed string
	if err := database.QueryRow("SELECT last_referenced FROM memories WHERE id = ?", stored.ID).Scan(&refreshed); err != nil {
		t.Fatal(err)
	}
	if refreshed <= backdated {
		t.Errorf("last_referenced not refreshed: %s", refreshed)
	}
}

func TestMemoryContextIdempotent(t *testing.T) {
	m := NewMemory(openTestDB(t))

	entries := []MemoryEntry{
		{Category: CategoryPreference, Subject: "p", Content: "Prefers evenings"},
		{Category: CategoryFact, Subject: "f", Content: "Lives in Chennai", Confidence: 0.9},
		{Category: CategoryObservation, Subject: "o", Content: "Early riser", Confidence: 0.6, Source: SourceInferred},
	}
	for _, e := range entries {
		if _, err := m.Store(e); err != nil {
			t.Fatal(err)
		}
	}

	first, err := m.Context()
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Context()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("context not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestMemoryDeactivate(t *testing.T) {
	m := NewMemory(openTestDB(t))

	stored, err := m.Store(MemoryEntry{Category: CategoryPreference, Subject: "p", Content: "Old preference"})
	if err != nil {
		t.Fatal(err)
	}

	has, err := m.HasActiveEntries()
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("expected active entries after store")
	}

	if err := m.Deactivate(stored.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	block, err := m.Context()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(block, "Old preference") {
		t.Error("deactivated entry still in context")
	}

	has, err = m.HasActiveEntries()
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("expected no active entries after deactivation")
	}
}

func TestMemorySearch(t *testing.T) {
	m := NewMemory(openTestDB(t))

	if _, err := m.Store(MemoryEntry{Category: CategoryFact, Subject: "work_schedule", Content: "Starts work at 9am", Confidence: 0.9}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store(MemoryEntry{Category: CategoryFact, Subject: "city", Content: "Lives in Chennai"}); err != nil {
		t.Fatal(err)
	}

	results, err := m.Search("work")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Subject != "work_schedule" {
		t.Errorf("search returned %d results, want the work_schedule entry", len(results))
	}
}
