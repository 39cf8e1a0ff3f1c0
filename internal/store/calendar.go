package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chitralabs/chitra/internal/logging"
)

// Event is one calendar entry. Date and Time are stored separately so
// same-day queries stay string comparisons.
type Event struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Date            string   `json:"date"` // 2006-01-02
	Time            string   `json:"time"` // 15:04
	DurationMinutes int      `json:"duration_minutes"`
	Notes           string   `json:"notes,omitempty"`
	Participants    []string `json:"participants,omitempty"`
}

// Calendar manages the local event store.
type Calendar struct {
	db *sql.DB
}

// NewCalendar returns a calendar store over the shared database.
func NewCalendar(db *sql.DB) *Calendar {
	return &Calendar{db: db}
}

const eventColumns = "id, title, date, time, duration_minutes, notes, participants"

func scanEvent(row interface{ Scan(...any) error }) (*Event, error) {
	var e Event
	var notes, participants sql.NullString
	if err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Time, &e.DurationMinutes, &notes, &participants); err != nil {
		return nil, err
	}
	e.Notes = notes.String
	// participants is stored as a JSON array; tolerate junk
	if err := json.Unmarshal([]byte(participants.String), &e.Participants); err != nil {
		e.Participants = nil
	}
	return &e, nil
}

// Create stores a new event. The id is generated here.
func (s *Calendar) Create(e Event) (*Event, error) {
	if e.Title == "" || e.Date == "" || e.Time == "" {
		return nil, fmt.Errorf("missing required fields: title, date, time")
	}
	if e.DurationMinutes <= 0 {
		e.DurationMinutes = 60
	}
	e.ID = uuid.New().String()

	participants, err := json.Marshal(e.Participants)
	if err != nil {
		participants = []byte("[]")
	}

	_, err = s.db.Exec(
		`INSERT INTO events (id, title, date, time, duration_minutes, notes, participants)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Date, e.Time, e.DurationMinutes, e.Notes, string(participants),
	)
	if err != nil {
		return nil, fmt.Errorf("event create failed: %w", err)
	}
	logging.Infof("Created event: %s on %s %s", e.Title, e.Date, e.Time)
	return &e, nil
}

// GetUpcoming returns events scheduled within the next N hours.
func (s *Calendar) GetUpcoming(hoursAhead int) ([]Event, error) {
	now := time.Now()
	cutoff := now.Add(time.Duration(hoursAhead) * time.Hour)

	return s.queryEvents(
		`SELECT `+eventColumns+` FROM events
		 WHERE (date || ' ' || time) >= ? AND (date || ' ' || time) <= ?
		 ORDER BY date, time`,
		now.Format(dateLayout+" "+timeLayout),
		cutoff.Format(dateLayout+" "+timeLayout),
	)
}

// GetToday returns all events for today ordered by time.
func (s *Calendar) GetToday() ([]Event, error) {
	today := time.Now().Format(dateLayout)
	return s.queryEvents("SELECT "+eventColumns+" FROM events WHERE date = ? ORDER BY time", today)
}

// GetRange returns events within a date range, inclusive.
func (s *Calendar) GetRange(startDate, endDate string) ([]Event, error) {
	return s.queryEvents(
		"SELECT "+eventColumns+" FROM events WHERE date >= ? AND date <= ? ORDER BY date, time",
		startDate, endDate,
	)
}

func (s *Calendar) queryEvents(query string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("event query failed: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
