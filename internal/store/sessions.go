package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuthSession is an opaque login token tied to a user.
type AuthSession struct {
	Token     string
	UserID    string
	CreatedAt int64
	ExpiresAt int64
}

// CreateAuthSession mints a session token for a user with the given
// lifetime.
func (db *DB) CreateAuthSession(userID string, ttl time.Duration) (*AuthSession, error) {
	now := time.Now()
	s := &AuthSession{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
	_, err := db.Exec(`
		INSERT INTO auth_sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)
	`, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert auth session: %w", err)
	}
	return s, nil
}

// GetAuthSession returns a live session by token. Expired or unknown
// tokens return nil; expired rows are deleted on the way out.
func (db *DB) GetAuthSession(token string) (*AuthSession, error) {
	var s AuthSession
	err := db.QueryRow(`
		SELECT token, user_id, created_at, expires_at FROM auth_sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auth session: %w", err)
	}
	if s.ExpiresAt <= time.Now().UnixMilli() {
		db.DeleteAuthSession(s.Token)
		return nil, nil
	}
	return &s, nil
}

// DeleteAuthSession removes a session token. Deleting an unknown token
// is a no-op.
func (db *DB) DeleteAuthSession(token string) error {
	_, err := db.Exec(`DELETE FROM auth_sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}
