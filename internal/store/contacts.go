package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chitralabs/chitra/internal/logging"
)

// Contact is one person the user knows.
type Contact struct {
	ID                      string `json:"id"`
	Name                    string `json:"name"`
	Relationship            string `json:"relationship,omitempty"`
	Phone                   string `json:"phone,omitempty"`
	Email                   string `json:"email,omitempty"`
	Notes                   string `json:"notes,omitempty"`
	LastInteraction         string `json:"last_interaction,omitempty"`
	CommunicationPreference string `json:"communication_preference,omitempty"`
}

// Contacts manages the local contact store.
type Contacts struct {
	db *sql.DB
}

// NewContacts returns a contact store over the shared database.
func NewContacts(db *sql.DB) *Contacts {
	return &Contacts{db: db}
}

const contactColumns = "id, name, relationship, phone, email, notes, last_interaction, communication_preference"

func scanContact(row interface{ Scan(...any) error }) (*Contact, error) {
	var c Contact
	var relationship, phone, email, notes, lastInteraction, commPref sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &relationship, &phone, &email, &notes, &lastInteraction, &commPref); err != nil {
		return nil, err
	}
	c.Relationship = relationship.String
	c.Phone = phone.String
	c.Email = email.String
	c.Notes = notes.String
	c.LastInteraction = lastInteraction.String
	c.CommunicationPreference = commPref.String
	return &c, nil
}

// Get finds a contact by name or partial name. Returns nil when no
// contact matches.
func (s *Contacts) Get(name string) (*Contact, error) {
	row := s.db.QueryRow(
		"SELECT "+contactColumns+" FROM contacts WHERE name LIKE ? ORDER BY name LIMIT 1",
		"%"+name+"%",
	)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}
	return c, nil
}

// List returns all contacts ordered by name.
func (s *Contacts) List() ([]Contact, error) {
	rows, err := s.db.Query("SELECT " + contactColumns + " FROM contacts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("contact list failed: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create stores a new contact. The id is generated here.
func (s *Contacts) Create(c Contact) (*Contact, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("missing required field: name")
	}
	c.ID = uuid.New().String()

	_, err := s.db.Exec(
		`INSERT INTO contacts (id, name, relationship, phone, email, notes, last_interaction, communication_preference)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Relationship, c.Phone, c.Email, c.Notes, c.LastInteraction, c.CommunicationPreference,
	)
	if err != nil {
		return nil, fmt.Errorf("contact create failed: %w", err)
	}
	logging.Infof("Created contact: %s", c.Name)
	return &c, nil
}

// contactFields maps updatable field names to columns. Anything else in an
// update request is rejected.
var contactFields = map[string]string{
	"name":                     "name",
	"relationship":             "relationship",
	"phone":                    "phone",
	"email":                    "email",
	"notes":                    "notes",
	"last_interaction":         "last_interaction",
	"communication_preference": "communication_preference",
}

// Update changes specific fields on an existing contact.
func (s *Contacts) Update(id string, fields map[string]any) (*Contact, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	set := ""
	args := make([]any, 0, len(fields)+1)
	for k, v := range fields {
		col, ok := contactFields[k]
		if !ok {
			return nil, fmt.Errorf("unknown contact field: %s", k)
		}
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, fmt.Sprintf("%v", v))
	}
	args = append(args, id)

	res, err := s.db.Exec("UPDATE contacts SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("contact update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("contact not found: %s", id)
	}
	return s.byID(id)
}

// NoteInteraction marks that the user interacted with this contact now.
func (s *Contacts) NoteInteraction(id string) (*Contact, error) {
	res, err := s.db.Exec("UPDATE contacts SET last_interaction = ? WHERE id = ?", isoNow(), id)
	if err != nil {
		return nil, fmt.Errorf("contact interaction update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("contact not found: %s", id)
	}
	return s.byID(id)
}

// GetNeglected returns contacts whose last interaction is older than the
// threshold. Contacts with no recorded interaction yet are not neglected;
// there is no relationship history to lapse.
func (s *Contacts) GetNeglected(daysThreshold int) ([]Contact, error) {
	cutoff := time.Now().AddDate(0, 0, -daysThreshold).Format(isoLayout)

	rows, err := s.db.Query(
		"SELECT "+contactColumns+" FROM contacts WHERE last_interaction IS NOT NULL AND last_interaction != '' AND last_interaction <= ? ORDER BY last_interaction",
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("neglected contact query failed: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Contacts) byID(id string) (*Contact, error) {
	row := s.db.QueryRow("SELECT "+contactColumns+" FROM contacts WHERE id = ?", id)
	c, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("contact not found: %s", id)
	}
	return c, nil
}
