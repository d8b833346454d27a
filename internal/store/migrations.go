package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "people: the contacts being tracked",
		SQL: `
CREATE TABLE people (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    name_ext       TEXT NOT NULL DEFAULT '',
    email          TEXT NOT NULL DEFAULT '',
    phone          TEXT NOT NULL DEFAULT '',
    location       TEXT NOT NULL DEFAULT '',
    address        TEXT NOT NULL DEFAULT '',
    company        TEXT NOT NULL DEFAULT '',
    birthday_month INTEGER NOT NULL DEFAULT 0,
    birthday_day   INTEGER NOT NULL DEFAULT 0,
    birthday_year  INTEGER NOT NULL DEFAULT 0,
    how_we_met     TEXT NOT NULL DEFAULT '',
    notes          TEXT NOT NULL DEFAULT '',
    ai_summary     TEXT NOT NULL DEFAULT '',
    created_by     TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_people_name ON people(name);
`,
	},
	{
		Version:     2,
		Description: "conversations and participants",
		SQL: `
CREATE TABLE conversations (
    id         TEXT PRIMARY KEY,
    date       TEXT NOT NULL,
    type       TEXT NOT NULL CHECK (type IN ('in_person', 'phone', 'text', 'email', 'video', 'other')),
    location   TEXT NOT NULL DEFAULT '',
    notes      TEXT NOT NULL DEFAULT '',
    private    INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_conversations_date ON conversations(date DESC);

CREATE TABLE conversation_participants (
    conversation_id TEXT NOT NULL,
    person_id       TEXT NOT NULL,
    PRIMARY KEY (conversation_id, person_id),
    FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE,
    FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
);

CREATE INDEX idx_participants_person ON conversation_participants(person_id);
`,
	},
	{
		Version:     3,
		Description: "contact_attempts: reach-outs that may or may not have landed",
		SQL: `
CREATE TABLE contact_attempts (
    id                  TEXT PRIMARY KEY,
    person_id           TEXT NOT NULL,
    date                TEXT NOT NULL,
    type                TEXT NOT NULL CHECK (type IN ('text', 'email', 'call', 'social', 'other')),
    notes               TEXT NOT NULL DEFAULT '',
    led_to_conversation INTEGER NOT NULL DEFAULT 0,
    private             INTEGER NOT NULL DEFAULT 0,
    created_by          TEXT NOT NULL DEFAULT '',
    created_at          INTEGER NOT NULL,
    FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
);

CREATE INDEX idx_attempts_person ON contact_attempts(person_id);
CREATE INDEX idx_attempts_date   ON contact_attempts(date DESC);
`,
	},
	{
		Version:     4,
		Description: "relationships: one row per unordered pair of people",
		SQL: `
CREATE TABLE relationships (
    id          TEXT PRIMARY KEY,
    person1_id  TEXT NOT NULL,
    person2_id  TEXT NOT NULL,
    type        TEXT NOT NULL CHECK (type IN ('partner', 'family', 'friend', 'colleague', 'acquaintance', 'other')),
    description TEXT NOT NULL DEFAULT '',
    created_by  TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (person1_id) REFERENCES people(id) ON DELETE CASCADE,
    FOREIGN KEY (person2_id) REFERENCES people(id) ON DELETE CASCADE
);

-- Pairs are normalized before insert (person1_id < person2_id), so this
-- unique index also rejects the reverse ordering of an existing pair.
CREATE UNIQUE INDEX idx_relationships_pair ON relationships(person1_id, person2_id);
`,
	},
	{
		Version:     5,
		Description: "users and auth sessions",
		SQL: `
CREATE TABLE users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE auth_sessions (
    token      TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX idx_auth_sessions_user ON auth_sessions(user_id);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
