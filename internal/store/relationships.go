package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RelationshipTypes are the accepted relationship type tags.
var RelationshipTypes = []string{"partner", "family", "friend", "colleague", "acquaintance", "other"}

// Relationship links an unordered pair of people. The pair is normalized
// so person1 holds the lexicographically smaller id; combined with the
// unique index this makes the reverse pair the same record.
type Relationship struct {
	ID          string `json:"id"`
	Person1ID   string `json:"person1"`
	Person2ID   string `json:"person2"`
	Type        string `json:"relationship_type"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
}

func normalizePair(r *Relationship) {
	if r.Person2ID < r.Person1ID {
		r.Person1ID, r.Person2ID = r.Person2ID, r.Person1ID
	}
}

func (db *DB) validateRelationship(r *Relationship) error {
	if r.Person1ID == "" {
		return invalid("person1", "required")
	}
	if r.Person2ID == "" {
		return invalid("person2", "required")
	}
	if r.Person1ID == r.Person2ID {
		return invalid("person2", "must differ from person1")
	}
	if !contains(RelationshipTypes, r.Type) {
		return invalid("relationship_type", "unknown relationship type")
	}
	for _, field := range []struct{ name, id string }{
		{"person1", r.Person1ID},
		{"person2", r.Person2ID},
	} {
		p, err := db.GetPerson(field.id)
		if err != nil {
			return err
		}
		if p == nil {
			return invalid(field.name, "unknown person "+field.id)
		}
	}
	return nil
}

// CreateRelationship validates and inserts a relationship. A pair that
// already has a relationship, in either order, is rejected.
func (db *DB) CreateRelationship(r *Relationship) error {
	if err := db.validateRelationship(r); err != nil {
		return err
	}
	normalizePair(r)

	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM relationships WHERE person1_id = ? AND person2_id = ?
	`, r.Person1ID, r.Person2ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check pair: %w", err)
	}
	if count > 0 {
		return invalid("person2", "relationship already exists for this pair")
	}

	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UnixMilli()

	_, err = db.Exec(`
		INSERT INTO relationships (id, person1_id, person2_id, type, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Person1ID, r.Person2ID, r.Type, r.Description, r.CreatedBy, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	return nil
}

// GetRelationship returns a relationship by id, or nil if not found.
func (db *DB) GetRelationship(id string) (*Relationship, error) {
	var r Relationship
	err := db.QueryRow(`
		SELECT id, person1_id, person2_id, type, description, created_by, created_at
		FROM relationships WHERE id = ?
	`, id).Scan(&r.ID, &r.Person1ID, &r.Person2ID, &r.Type, &r.Description, &r.CreatedBy, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return &r, nil
}

// ListRelationships returns all relationships in insertion order.
func (db *DB) ListRelationships() ([]Relationship, error) {
	return db.queryRelationships(`
		SELECT id, person1_id, person2_id, type, description, created_by, created_at
		FROM relationships ORDER BY created_at, id
	`)
}

// RelationshipsForPerson returns the relationships a person is part of,
// regardless of which side of the pair they were stored on.
func (db *DB) RelationshipsForPerson(personID string) ([]Relationship, error) {
	return db.queryRelationships(`
		SELECT id, person1_id, person2_id, type, description, created_by, created_at
		FROM relationships WHERE person1_id = ? OR person2_id = ?
		ORDER BY created_at, id
	`, personID, personID)
}

func (db *DB) queryRelationships(query string, args ...any) ([]Relationship, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.ID, &r.Person1ID, &r.Person2ID, &r.Type, &r.Description, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// UpdateRelationship replaces the type and description of a relationship.
// The pair itself is immutable; delete and recreate to change it.
func (db *DB) UpdateRelationship(r *Relationship) error {
	if !contains(RelationshipTypes, r.Type) {
		return invalid("relationship_type", "unknown relationship type")
	}
	result, err := db.Exec(`
		UPDATE relationships SET type = ?, description = ? WHERE id = ?
	`, r.Type, r.Description, r.ID)
	if err != nil {
		return fmt.Errorf("update relationship: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRelationship removes a relationship.
func (db *DB) DeleteRelationship(id string) error {
	result, err := db.Exec(`DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
