package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chitralabs/chitra/internal/logging"
)

// Memory categories and sources form closed sets; the schema enforces them
// too, but validating here keeps the error readable.
const (
	CategoryPreference   = "preference"
	CategoryFact         = "fact"
	CategoryObservation  = "observation"
	CategoryRelationship = "relationship"

	SourceStated   = "stated"
	SourceInferred = "inferred"
)

// MemoryEntry is one piece of stored knowledge about the user.
// Deactivated entries stay in storage but never reach the LLM again.
type MemoryEntry struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Subject        string  `json:"subject"`
	Content        string  `json:"content"`
	Confidence     float64 `json:"confidence"`
	Source         string  `json:"source"`
	ContactID      string  `json:"contact_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	LastReferenced string  `json:"last_referenced"`
	Active         bool    `json:"active"`
}

// Memory is the personal knowledge layer injected into every LLM call.
type Memory struct {
	db *sql.DB
}

// NewMemory returns a memory store over the shared database.
func NewMemory(db *sql.DB) *Memory {
	return &Memory{db: db}
}

const memoryColumns = "id, category, subject, content, confidence, source, contact_id, created_at, last_referenced, active"

func scanMemory(row interface{ Scan(...any) error }) (*MemoryEntry, error) {
	var e MemoryEntry
	var contactID sql.NullString
	var active int
	if err := row.Scan(&e.ID, &e.Category, &e.Subject, &e.Content, &e.Confidence, &e.Source, &contactID, &e.CreatedAt, &e.LastReferenced, &active); err != nil {
		return nil, err
	}
	e.ContactID = contactID.String
	e.Active = active == 1
	return &e, nil
}

// Store saves a new memory entry. Source defaults to "stated" when unset;
// category and source must be from the closed sets. Confidence is stored
// as given: absence is only observable at the JSON boundaries, so the
// capability binding and the draft write-back default it to 1.0 there.
func (s *Memory) Store(e MemoryEntry) (*MemoryEntry, error) {
	if e.Category == "" || e.Subject == "" || e.Content == "" {
		return nil, fmt.Errorf("missing required fields: category, subject, content")
	}
	switch e.Category {
	case CategoryPreference, CategoryFact, CategoryObservation, CategoryRelationship:
	default:
		return nil, fmt.Errorf("invalid category: %s", e.Category)
	}
	if e.Source == "" {
		e.Source = SourceStated
	}
	if e.Source != SourceStated && e.Source != SourceInferred {
		return nil, fmt.Errorf("invalid source: %s", e.Source)
	}
	e.ID = uuid.New().String()
	now := isoNow()
	e.CreatedAt = now
	e.LastReferenced = now
	e.Active = true

	_, err := s.db.Exec(
		`INSERT INTO memories (id, category, subject, content, confidence, source, contact_id, created_at, last_referenced, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		e.ID, e.Category, e.Subject, e.Content, e.Confidence, e.Source, e.ContactID, e.CreatedAt, e.LastReferenced,
	)
	if err != nil {
		return nil, fmt.Errorf("memory store failed: %w", err)
	}
	logging.Infof("Stored memory: [%s] %s", e.Category, e.Subject)
	return &e, nil
}

// Context returns the stored knowledge that currently qualifies for LLM
// injection, rendered as a prose block. Selection rules, per active entry:
//
//	preference:   always included
//	fact:         confidence >= 0.8
//	relationship: last referenced within 30 days
//	observation:  confidence >= 0.5; entries below 0.5 that are also
//	               older than 60 days never qualify again
//
// Every entry that makes the cut has its last_referenced advanced to now.
// Entries that are skipped are never touched, so unreferenced
// relationships age out on their own.
func (s *Memory) Context() (string, error) {
	now := time.Now()
	thirtyDaysAgo := now.AddDate(0, 0, -30).Format(isoLayout)
	sixtyDaysAgo := now.AddDate(0, 0, -60).Format(isoLayout)

	rows, err := s.db.Query("SELECT " + memoryColumns + " FROM memories WHERE active = 1 ORDER BY category, created_at")
	if err != nil {
		return "", fmt.Errorf("memory context query failed: %w", err)
	}
	defer rows.Close()

	var preferences, facts, relationships, observations []MemoryEntry
	var includedIDs []string

	for rows.Next() {
		e, err := scanMemory(rows)
		if err != nil {
			return "", err
		}

		switch e.Category {
		case CategoryPreference:
			preferences = append(preferences, *e)
			includedIDs = append(includedIDs, e.ID)
		case CategoryFact:
			if e.Confidence >= 0.8 {
				facts = append(facts, *e)
				includedIDs = append(includedIDs, e.ID)
			}
		case CategoryRelationship:
			if e.LastReferenced >= thirtyDaysAgo {
				relationships = append(relationships, *e)
				includedIDs = append(includedIDs, e.ID)
			}
		case CategoryObservation:
			if e.Confidence < 0.5 && e.CreatedAt < sixtyDaysAgo {
				continue
			}
			if e.Confidence >= 0.5 {
				observations = append(observations, *e)
				includedIDs = append(includedIDs, e.ID)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	// Refresh recency only on entries actually included; this read-time
	// side effect is what ages unused relationships out of context.
	if len(includedIDs) > 0 {
		placeholders := strings.Repeat("?,", len(includedIDs))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, 0, len(includedIDs)+1)
		args = append(args, now.Format(isoLayout))
		for _, id := range includedIDs {
			args = append(args, id)
		}
		if _, err := s.db.Exec("UPDATE memories SET last_referenced = ? WHERE id IN ("+placeholders+")", args...); err != nil {
			return "", fmt.Errorf("memory recency refresh failed: %w", err)
		}
	}

	return renderContextBlock(preferences, facts, relationships, observations), nil
}

// renderContextBlock formats the included entries as the natural-language
// block the LLM reads. Empty sections are omitted entirely.
func renderContextBlock(preferences, facts, relationships, observations []MemoryEntry) string {
	var sections []string

	if len(preferences) > 0 || len(facts) > 0 {
		lines := []string{"About the user:"}
		for _, e := range facts {
			lines = append(lines, "- "+e.Content)
		}
		for _, e := range preferences {
			lines = append(lines, "- "+e.Content)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(relationships) > 0 {
		lines := []string{"People:"}
		for _, e := range relationships {
			lines = append(lines, "- "+e.Content)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(observations) > 0 {
		lines := []string{"Current patterns:"}
		for _, e := range observations {
			lines = append(lines, "- "+e.Content)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// Search returns active entries whose subject or content matches the query,
// highest confidence first.
func (s *Memory) Search(query string) ([]MemoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+memoryColumns+` FROM memories
		 WHERE active = 1 AND (subject LIKE ? OR content LIKE ?)
		 ORDER BY confidence DESC, created_at DESC`,
		"%"+query+"%", "%"+query+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("memory search failed: %w", err)
	}
	defer rows.Close()

	var out []MemoryEntry
	for rows.Next() {
		e, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	logging.Debugf("Memory search %q: %d results", query, len(out))
	return out, rows.Err()
}

// Update replaces an entry's content and advances its recency.
func (s *Memory) Update(id, content string) (*MemoryEntry, error) {
	res, err := s.db.Exec(
		"UPDATE memories SET content = ?, last_referenced = ? WHERE id = ? AND active = 1",
		content, isoNow(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("memory update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("memory not found: %s", id)
	}

	row := s.db.QueryRow("SELECT "+memoryColumns+" FROM memories WHERE id = ?", id)
	return scanMemory(row)
}

// Deactivate soft-deletes an entry. It stays in storage for audit but is
// excluded from context and search from now on.
func (s *Memory) Deactivate(id string) error {
	res, err := s.db.Exec("UPDATE memories SET active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("memory deactivate failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory not found: %s", id)
	}
	logging.Infof("Deactivated memory: %s", id)
	return nil
}

// HasActiveEntries reports whether any active memory exists. Used for
// first-boot detection by the onboarding flow.
func (s *Memory) HasActiveEntries() (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM memories WHERE active = 1").Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
