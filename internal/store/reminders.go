package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chitralabs/chitra/internal/logging"
)

// Reminder is one time-based trigger. The proactive loop surfaces fired
// reminders conversationally and dismisses them afterwards.
type Reminder struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	TriggerAt string `json:"trigger_at"`
	Repeat    string `json:"repeat,omitempty"`
	Status    string `json:"status"` // pending, fired, dismissed
	ContactID string `json:"contact_id,omitempty"`
}

// Reminders manages time-based reminders and alarms.
type Reminders struct {
	db *sql.DB
}

// NewReminders returns a reminder store over the shared database.
func NewReminders(db *sql.DB) *Reminders {
	return &Reminders{db: db}
}

const reminderColumns = "id, text, trigger_at, repeat, status, contact_id"

func scanReminder(row interface{ Scan(...any) error }) (*Reminder, error) {
	var r Reminder
	var repeat, contactID sql.NullString
	if err := row.Scan(&r.ID, &r.Text, &r.TriggerAt, &repeat, &r.Status, &contactID); err != nil {
		return nil, err
	}
	r.Repeat = repeat.String
	r.ContactID = contactID.String
	return &r, nil
}

// Create stores a new pending reminder. The id is generated here.
func (s *Reminders) Create(r Reminder) (*Reminder, error) {
	if r.Text == "" || r.TriggerAt == "" {
		return nil, fmt.Errorf("missing required fields: text, trigger_at")
	}
	r.ID = uuid.New().String()
	r.Status = "pending"

	_, err := s.db.Exec(
		"INSERT INTO reminders (id, text, trigger_at, repeat, status, contact_id) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.Text, r.TriggerAt, r.Repeat, r.Status, r.ContactID,
	)
	if err != nil {
		return nil, fmt.Errorf("reminder create failed: %w", err)
	}
	logging.Infof("Created reminder: %s at %s", r.Text, r.TriggerAt)
	return &r, nil
}

// GetFired returns pending reminders whose trigger time has passed.
func (s *Reminders) GetFired() ([]Reminder, error) {
	return s.queryReminders(
		"SELECT "+reminderColumns+" FROM reminders WHERE status = 'pending' AND trigger_at <= ? ORDER BY trigger_at",
		isoNow(),
	)
}

// ListUpcoming returns pending reminders due within the next N hours.
func (s *Reminders) ListUpcoming(hoursAhead int) ([]Reminder, error) {
	now := time.Now()
	cutoff := now.Add(time.Duration(hoursAhead) * time.Hour)
	return s.queryReminders(
		"SELECT "+reminderColumns+" FROM reminders WHERE status = 'pending' AND trigger_at >= ? AND trigger_at <= ? ORDER BY trigger_at",
		now.Format(isoLayout), cutoff.Format(isoLayout),
	)
}

// Dismiss marks a reminder as dismissed after it has been surfaced.
func (s *Reminders) Dismiss(id string) (*Reminder, error) {
	res, err := s.db.Exec("UPDATE reminders SET status = 'dismissed' WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("reminder dismiss failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("reminder not found: %s", id)
	}

	row := s.db.QueryRow("SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)
	return scanReminder(row)
}

// Delete removes a reminder entirely.
func (s *Reminders) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("reminder delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder not found: %s", id)
	}
	return nil
}

func (s *Reminders) queryReminders(query string, args ...any) ([]Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reminder query failed: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
