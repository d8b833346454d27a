package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Person is a tracked contact. Birthday fields are partial: zero means
// unknown, and month/day are only meaningful as a pair.
type Person struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NameExt       string `json:"name_ext"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Location      string `json:"location"`
	Address       string `json:"address"`
	Company       string `json:"company"`
	BirthdayMonth int    `json:"birthday_month"`
	BirthdayDay   int    `json:"birthday_day"`
	BirthdayYear  int    `json:"birthday_year"`
	HowWeMet      string `json:"how_we_met"`
	Notes         string `json:"notes"`
	AISummary     string `json:"ai_summary"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     int64  `json:"created_at"`
}

const personColumns = `id, name, name_ext, email, phone, location, address, company,
	birthday_month, birthday_day, birthday_year, how_we_met, notes, ai_summary,
	created_by, created_at`

func scanPerson(row interface{ Scan(...any) error }) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.Name, &p.NameExt, &p.Email, &p.Phone, &p.Location,
		&p.Address, &p.Company, &p.BirthdayMonth, &p.BirthdayDay, &p.BirthdayYear,
		&p.HowWeMet, &p.Notes, &p.AISummary, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validatePerson(p *Person) error {
	if p.Name == "" {
		return invalid("name", "required")
	}
	if p.BirthdayMonth < 0 || p.BirthdayMonth > 12 {
		return invalid("birthday_month", "must be 1-12")
	}
	if p.BirthdayDay < 0 || p.BirthdayDay > 31 {
		return invalid("birthday_day", "must be 1-31")
	}
	if (p.BirthdayMonth == 0) != (p.BirthdayDay == 0) {
		return invalid("birthday_day", "month and day must be set together")
	}
	if p.BirthdayYear != 0 && p.BirthdayMonth == 0 {
		return invalid("birthday_year", "year requires month and day")
	}
	return nil
}

// CreatePerson validates and inserts a person, assigning its id and
// creation timestamp.
func (db *DB) CreatePerson(p *Person) error {
	if err := validatePerson(p); err != nil {
		return err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UnixMilli()

	_, err := db.Exec(`
		INSERT INTO people (`+personColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.NameExt, p.Email, p.Phone, p.Location, p.Address, p.Company,
		p.BirthdayMonth, p.BirthdayDay, p.BirthdayYear, p.HowWeMet, p.Notes,
		p.AISummary, p.CreatedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

// GetPerson returns a person by id, or nil if not found.
func (db *DB) GetPerson(id string) (*Person, error) {
	p, err := scanPerson(db.QueryRow(`SELECT `+personColumns+` FROM people WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// ListPeople returns all people ordered by name.
func (db *DB) ListPeople() ([]Person, error) {
	return db.queryPeople(`SELECT ` + personColumns + ` FROM people ORDER BY name, id`)
}

// ListPeopleByCreation returns all people in insertion order. Rankings
// that break ties "by id order" iterate this list with stable sorts.
func (db *DB) ListPeopleByCreation() ([]Person, error) {
	return db.queryPeople(`SELECT ` + personColumns + ` FROM people ORDER BY created_at, id`)
}

func (db *DB) queryPeople(query string, args ...any) ([]Person, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// UpdatePerson replaces all mutable fields of a person.
func (db *DB) UpdatePerson(p *Person) error {
	if err := validatePerson(p); err != nil {
		return err
	}
	result, err := db.Exec(`
		UPDATE people SET name = ?, name_ext = ?, email = ?, phone = ?, location = ?,
			address = ?, company = ?, birthday_month = ?, birthday_day = ?,
			birthday_year = ?, how_we_met = ?, notes = ?, ai_summary = ?
		WHERE id = ?
	`, p.Name, p.NameExt, p.Email, p.Phone, p.Location, p.Address, p.Company,
		p.BirthdayMonth, p.BirthdayDay, p.BirthdayYear, p.HowWeMet, p.Notes,
		p.AISummary, p.ID)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePerson removes a person. Participant links, contact attempts and
// relationships referencing the person go with it via foreign key cascade;
// conversation records themselves survive.
func (db *DB) DeletePerson(id string) error {
	result, err := db.Exec(`DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Locations returns the distinct non-empty location values, for
// autocompletion.
func (db *DB) Locations() ([]string, error) {
	return db.distinctColumn("location")
}

// Companies returns the distinct non-empty company values, for
// autocompletion.
func (db *DB) Companies() ([]string, error) {
	return db.distinctColumn("company")
}

func (db *DB) distinctColumn(column string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT ` + column + ` FROM people WHERE ` + column + ` != '' ORDER BY ` + column)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
