package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chitralabs/chitra/internal/logging"
)

// Task is one thing the user needs to do.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	Status    string `json:"status"`   // pending, done
	Priority  string `json:"priority"` // high, normal, low
	CreatedAt string `json:"created_at"`
}

// Tasks manages the local task store.
type Tasks struct {
	db *sql.DB
}

// NewTasks returns a task store over the shared database.
func NewTasks(db *sql.DB) *Tasks {
	return &Tasks{db: db}
}

const taskColumns = "id, title, notes, due_date, status, priority, created_at"

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	var t Task
	var notes, dueDate sql.NullString
	if err := row.Scan(&t.ID, &t.Title, &notes, &dueDate, &t.Status, &t.Priority, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Notes = notes.String
	t.DueDate = dueDate.String
	return &t, nil
}

// Create stores a new pending task. The id is generated here.
func (s *Tasks) Create(t Task) (*Task, error) {
	if t.Title == "" {
		return nil, fmt.Errorf("missing required field: title")
	}
	switch t.Priority {
	case "":
		t.Priority = "normal"
	case "high", "normal", "low":
	default:
		return nil, fmt.Errorf("invalid priority: %s", t.Priority)
	}
	t.ID = uuid.New().String()
	t.Status = "pending"
	t.CreatedAt = isoNow()

	_, err := s.db.Exec(
		"INSERT INTO tasks (id, title, notes, due_date, status, priority, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, t.Notes, t.DueDate, t.Status, t.Priority, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("task create failed: %w", err)
	}
	logging.Infof("Created task: %s (priority %s)", t.Title, t.Priority)
	return &t, nil
}

// List returns tasks filtered by status: "pending", "done", or "all".
func (s *Tasks) List(status string) ([]Task, error) {
	switch status {
	case "", "all":
		return s.queryTasks("SELECT " + taskColumns + " FROM tasks ORDER BY created_at")
	case "pending", "done":
		return s.queryTasks("SELECT "+taskColumns+" FROM tasks WHERE status = ? ORDER BY created_at", status)
	default:
		return nil, fmt.Errorf("invalid task status: %s", status)
	}
}

// Complete marks a task as done.
func (s *Tasks) Complete(id string) (*Task, error) {
	res, err := s.db.Exec("UPDATE tasks SET status = 'done' WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("task complete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("task not found: %s", id)
	}

	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

// GetOverdue returns pending tasks past their due date.
func (s *Tasks) GetOverdue() ([]Task, error) {
	today := time.Now().Format(dateLayout)
	return s.queryTasks(
		"SELECT "+taskColumns+" FROM tasks WHERE status = 'pending' AND due_date IS NOT NULL AND due_date != '' AND due_date < ? ORDER BY due_date",
		today,
	)
}

// GetDueToday returns pending tasks due today.
func (s *Tasks) GetDueToday() ([]Task, error) {
	today := time.Now().Format(dateLayout)
	return s.queryTasks(
		"SELECT "+taskColumns+" FROM tasks WHERE status = 'pending' AND due_date = ? ORDER BY priority",
		today,
	)
}

func (s *Tasks) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("task query failed: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
