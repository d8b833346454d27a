package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a login account. Accounts are managed from the CLI; there is
// no self-registration.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

// CreateUser inserts a user with a bcrypt-hashed password.
func (db *DB) CreateUser(username, password string) (*User, error) {
	if username == "" {
		return nil, invalid("username", "required")
	}
	if password == "" {
		return nil, invalid("password", "required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UnixMilli(),
	}
	_, err = db.Exec(`
		INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by id, or nil if not found.
func (db *DB) GetUser(id string) (*User, error) {
	var u User
	err := db.QueryRow(`
		SELECT id, username, password_hash, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername returns a user by username, or nil if not found.
func (db *DB) GetUserByUsername(username string) (*User, error) {
	var u User
	err := db.QueryRow(`
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by username.
func (db *DB) ListUsers() ([]User, error) {
	rows, err := db.Query(`SELECT id, username, password_hash, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Authenticate checks a username/password pair and returns the user on
// success, or nil on any mismatch. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (db *DB) Authenticate(username, password string) (*User, error) {
	u, err := db.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return u, nil
}
