package store

import (
	"testing"
	"time"
)

func TestCreateUserAndAuthenticate(t *testing.T) {
	db := testDB(t)

	u, err := db.CreateUser("alice", "correct horse")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Error("ID should be assigned")
	}
	if u.PasswordHash == "correct horse" {
		t.Error("password must not be stored in the clear")
	}

	got, err := db.Authenticate("alice", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Errorf("got %+v, want user %s", got, u.ID)
	}

	// Wrong password and unknown user both come back nil.
	if got, _ := db.Authenticate("alice", "wrong"); got != nil {
		t.Error("wrong password should not authenticate")
	}
	if got, _ := db.Authenticate("mallory", "correct horse"); got != nil {
		t.Error("unknown user should not authenticate")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := testDB(t)

	if _, err := db.CreateUser("alice", "pw"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := db.CreateUser("alice", "pw2"); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	db := testDB(t)

	u, err := db.CreateUser("alice", "pw")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	sess, err := db.CreateAuthSession(u.ID, time.Hour)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	got, err := db.GetAuthSession(sess.Token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if got == nil || got.UserID != u.ID {
		t.Errorf("got %+v, want session for %s", got, u.ID)
	}

	if err := db.DeleteAuthSession(sess.Token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	if got, _ := db.GetAuthSession(sess.Token); got != nil {
		t.Error("deleted session should not resolve")
	}
}

func TestAuthSessionExpiry(t *testing.T) {
	db := testDB(t)

	u, err := db.CreateUser("alice", "pw")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	sess, err := db.CreateAuthSession(u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	if got, _ := db.GetAuthSession(sess.Token); got != nil {
		t.Error("expired session should not resolve")
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := testDB(t)

	if u, _ := db.GetUser("nope"); u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
	if u, _ := db.GetUserByUsername("nope"); u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}
