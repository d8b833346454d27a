package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttemptTypes are the accepted contact attempt type tags.
var AttemptTypes = []string{"text", "email", "call", "social", "other"}

// ContactAttempt is a reach-out to a single person that may or may not
// have led to a conversation.
type ContactAttempt struct {
	ID                string `json:"id"`
	PersonID          string `json:"person"`
	Date              string `json:"date"`
	Type              string `json:"type"`
	Notes             string `json:"notes"`
	LedToConversation bool   `json:"led_to_conversation"`
	Private           bool   `json:"private"`
	CreatedBy         string `json:"created_by"`
	CreatedAt         int64  `json:"created_at"`
}

func (db *DB) validateAttempt(a *ContactAttempt) error {
	if a.PersonID == "" {
		return invalid("person", "required")
	}
	if !validDate(a.Date) {
		return invalid("date", "must be YYYY-MM-DD")
	}
	if !contains(AttemptTypes, a.Type) {
		return invalid("type", "unknown attempt type")
	}
	p, err := db.GetPerson(a.PersonID)
	if err != nil {
		return err
	}
	if p == nil {
		return invalid("person", "unknown person "+a.PersonID)
	}
	return nil
}

// CreateAttempt validates and inserts a contact attempt.
func (db *DB) CreateAttempt(a *ContactAttempt) error {
	if err := db.validateAttempt(a); err != nil {
		return err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UnixMilli()

	_, err := db.Exec(`
		INSERT INTO contact_attempts (id, person_id, date, type, notes, led_to_conversation, private, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.PersonID, a.Date, a.Type, a.Notes, a.LedToConversation, a.Private, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// GetAttempt returns a contact attempt by id, or nil if not found.
func (db *DB) GetAttempt(id string) (*ContactAttempt, error) {
	var a ContactAttempt
	err := db.QueryRow(`
		SELECT id, person_id, date, type, notes, led_to_conversation, private, created_by, created_at
		FROM contact_attempts WHERE id = ?
	`, id).Scan(&a.ID, &a.PersonID, &a.Date, &a.Type, &a.Notes, &a.LedToConversation, &a.Private, &a.CreatedBy, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return &a, nil
}

// ListAttempts returns all contact attempts, newest date first.
func (db *DB) ListAttempts() ([]ContactAttempt, error) {
	return db.queryAttempts(`
		SELECT id, person_id, date, type, notes, led_to_conversation, private, created_by, created_at
		FROM contact_attempts ORDER BY date DESC, created_at DESC
	`)
}

// AttemptsSince returns contact attempts dated on or after the given
// date, newest first.
func (db *DB) AttemptsSince(date string) ([]ContactAttempt, error) {
	return db.queryAttempts(`
		SELECT id, person_id, date, type, notes, led_to_conversation, private, created_by, created_at
		FROM contact_attempts WHERE date >= ? ORDER BY date DESC, created_at DESC
	`, date)
}

func (db *DB) queryAttempts(query string, args ...any) ([]ContactAttempt, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []ContactAttempt
	for rows.Next() {
		var a ContactAttempt
		if err := rows.Scan(&a.ID, &a.PersonID, &a.Date, &a.Type, &a.Notes, &a.LedToConversation, &a.Private, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// UpdateAttempt replaces all mutable fields of a contact attempt.
func (db *DB) UpdateAttempt(a *ContactAttempt) error {
	if err := db.validateAttempt(a); err != nil {
		return err
	}
	result, err := db.Exec(`
		UPDATE contact_attempts SET person_id = ?, date = ?, type = ?, notes = ?, led_to_conversation = ?, private = ?
		WHERE id = ?
	`, a.PersonID, a.Date, a.Type, a.Notes, a.LedToConversation, a.Private, a.ID)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAttempt removes a contact attempt.
func (db *DB) DeleteAttempt(id string) error {
	result, err := db.Exec(`DELETE FROM contact_attempts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
