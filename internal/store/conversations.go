package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage format for entity dates. Dates are kept as
// text so range queries are plain string comparisons.
const DateLayout = "2006-01-02"

// ConversationTypes are the accepted conversation type tags.
var ConversationTypes = []string{"in_person", "phone", "text", "email", "video", "other"}

// Conversation is a logged conversation with one or more people.
type Conversation struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	Date         string   `json:"date"`
	Type         string   `json:"type"`
	Location     string   `json:"location"`
	Notes        string   `json:"notes"`
	Private      bool     `json:"private"`
	CreatedBy    string   `json:"created_by"`
	CreatedAt    int64    `json:"created_at"`
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func validDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

func (db *DB) validateConversation(c *Conversation) error {
	if len(c.Participants) == 0 {
		return invalid("participants", "at least one participant required")
	}
	if !validDate(c.Date) {
		return invalid("date", "must be YYYY-MM-DD")
	}
	if !contains(ConversationTypes, c.Type) {
		return invalid("type", "unknown conversation type")
	}
	for _, pid := range c.Participants {
		p, err := db.GetPerson(pid)
		if err != nil {
			return err
		}
		if p == nil {
			return invalid("participants", "unknown person "+pid)
		}
	}
	return nil
}

// CreateConversation validates and inserts a conversation with its
// participant links in one transaction.
func (db *DB) CreateConversation(c *Conversation) error {
	if err := db.validateConversation(c); err != nil {
		return err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO conversations (id, date, type, location, notes, private, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Date, c.Type, c.Location, c.Notes, c.Private, c.CreatedBy, c.CreatedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert conversation: %w", err)
	}
	for _, pid := range c.Participants {
		if _, err := tx.Exec(`
			INSERT INTO conversation_participants (conversation_id, person_id) VALUES (?, ?)
		`, c.ID, pid); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return tx.Commit()
}

// GetConversation returns a conversation by id, or nil if not found.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT id, date, type, location, notes, private, created_by, created_at
		FROM conversations WHERE id = ?
	`, id).Scan(&c.ID, &c.Date, &c.Type, &c.Location, &c.Notes, &c.Private, &c.CreatedBy, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if err := db.loadParticipants(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) loadParticipants(c *Conversation) error {
	rows, err := db.Query(`
		SELECT person_id FROM conversation_participants WHERE conversation_id = ? ORDER BY person_id
	`, c.ID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		c.Participants = append(c.Participants, pid)
	}
	return rows.Err()
}

// ListConversations returns all conversations, newest date first.
func (db *DB) ListConversations() ([]Conversation, error) {
	return db.queryConversations(`
		SELECT id, date, type, location, notes, private, created_by, created_at
		FROM conversations ORDER BY date DESC, created_at DESC
	`)
}

// ConversationsForPerson returns the conversations a person participated
// in, newest date first.
func (db *DB) ConversationsForPerson(personID string) ([]Conversation, error) {
	return db.queryConversations(`
		SELECT c.id, c.date, c.type, c.location, c.notes, c.private, c.created_by, c.created_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.person_id = ?
		ORDER BY c.date DESC, c.created_at DESC
	`, personID)
}

// ConversationsSince returns conversations dated on or after the given
// date, newest first.
func (db *DB) ConversationsSince(date string) ([]Conversation, error) {
	return db.queryConversations(`
		SELECT id, date, type, location, notes, private, created_by, created_at
		FROM conversations WHERE date >= ? ORDER BY date DESC, created_at DESC
	`, date)
}

func (db *DB) queryConversations(query string, args ...any) ([]Conversation, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Date, &c.Type, &c.Location, &c.Notes, &c.Private, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range convs {
		if err := db.loadParticipants(&convs[i]); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// UpdateConversation replaces all mutable fields of a conversation,
// including its participant set.
func (db *DB) UpdateConversation(c *Conversation) error {
	if err := db.validateConversation(c); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	result, err := tx.Exec(`
		UPDATE conversations SET date = ?, type = ?, location = ?, notes = ?, private = ?
		WHERE id = ?
	`, c.Date, c.Type, c.Location, c.Notes, c.Private, c.ID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("update conversation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM conversation_participants WHERE conversation_id = ?`, c.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear participants: %w", err)
	}
	for _, pid := range c.Participants {
		if _, err := tx.Exec(`
			INSERT INTO conversation_participants (conversation_id, person_id) VALUES (?, ?)
		`, c.ID, pid); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteConversation removes a conversation and its participant links.
func (db *DB) DeleteConversation(id string) error {
	result, err := db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
