package store

import (
	"errors"
	"testing"
)

func TestCreateConversation(t *testing.T) {
	db := testDB(t)

	ada := mustCreatePerson(t, db, "Ada")
	bob := mustCreatePerson(t, db, "Bob")

	c := &Conversation{
		Participants: []string{ada.ID, bob.ID},
		Date:         "2024-03-01",
		Type:         "in_person",
		Location:     "cafe",
		Notes:        "caught up after a while",
	}
	if err := db.CreateConversation(c); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	got, err := db.GetConversation(c.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got == nil {
		t.Fatal("expected conversation, got nil")
	}
	if len(got.Participants) != 2 {
		t.Errorf("participants = %v, want 2", got.Participants)
	}
	if got.Type != "in_person" || got.Date != "2024-03-01" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateConversationValidation(t *testing.T) {
	db := testDB(t)
	ada := mustCreatePerson(t, db, "Ada")

	tests := []struct {
		name  string
		conv  Conversation
		field string
	}{
		{"no participants", Conversation{Date: "2024-03-01", Type: "phone"}, "participants"},
		{"bad date", Conversation{Participants: []string{ada.ID}, Date: "March 1", Type: "phone"}, "date"},
		{"bad type", Conversation{Participants: []string{ada.ID}, Date: "2024-03-01", Type: "telepathy"}, "type"},
		{"unknown person", Conversation{Participants: []string{"ghost"}, Date: "2024-03-01", Type: "phone"}, "participants"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateConversation(&tt.conv)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestListConversationsOrder(t *testing.T) {
	db := testDB(t)
	ada := mustCreatePerson(t, db, "Ada")

	for _, date := range []string{"2024-01-10", "2024-03-05", "2024-02-20"} {
		c := &Conversation{Participants: []string{ada.ID}, Date: date, Type: "phone"}
		if err := db.CreateConversation(c); err != nil {
			t.Fatalf("CreateConversation: %v", err)
		}
	}

	convs, err := db.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 3 {
		t.Fatalf("got %d conversations, want 3", len(convs))
	}
	want := []string{"2024-03-05", "2024-02-20", "2024-01-10"}
	for i, c := range convs {
		if c.Date != want[i] {
			t.Errorf("convs[%d].Date = %s, want %s", i, c.Date, want[i])
		}
	}
}

func TestConversationsForPerson(t *testing.T) {
	db := testDB(t)
	ada := mustCreatePerson(t, db, "Ada")
	bob := mustCreatePerson(t, db, "Bob")

	c1 := &Conversation{Participants: []string{ada.ID}, Date: "2024-01-01", Type: "text"}
	c2 := &Conversation{Participants: []string{ada.ID, bob.ID}, Date: "2024-02-01", Type: "video"}
	c3 := &Conversation{Participants: []string{bob.ID}, Date: "2024-03-01", Type: "email"}
	for _, c := range []*Conversation{c1, c2, c3} {
		if err := db.CreateConversation(c); err != nil {
			t.Fatalf("CreateConversation: %v", err)
		}
	}

	convs, err := db.ConversationsForPerson(ada.ID)
	if err != nil {
		t.Fatalf("ConversationsForPerson: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != c2.ID || convs[1].ID != c1.ID {
		t.Errorf("wrong conversations or order: %v", convs)
	}
}

func TestConversationsSince(t *testing.T) {
	db := testDB(t)
	ada := mustCreatePerson(t, db, "Ada")

	for _, date := range []string{"2023-06-01", "2024-02-01", "2024-03-01"} {
		c := &Conversation{Participants: []string{ada.ID}, Date: date, Type: "phone"}
		if err := db.CreateConversation(c); err != nil {
			t.Fatalf("CreateConversation: %v", err)
		}
	}

	convs, err := db.ConversationsSince("2024-01-01")
	if err != nil {
		t.Fatalf("ConversationsSince: %v", err)
	}
	if len(convs) != 2 {
		t.Errorf("got %d conversations, want 2", len(convs))
	}
}

func TestUpdateConversation(t *testing.T) {
	db := testDB(t)
	ada := mustCreatePerson(t, db, "Ada")
	bob := mustCreatePerson(t, db, "Bob")

	c := &Conversation{Participants: []string{ada.ID}, Date: "2024-03-01", Type: "phone"}
	if err := db.CreateConversation(c); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	c.Participants = []string{bob.ID}
	c.Type = "video"
	c.Private = true
	if err := db.UpdateConversation(c); err != nil {
		t.Fatalf("UpdateConversation: %v", err)
	}

	got, _ := db.GetConversation(c.ID)
	if got.Type != "video" || !got.Private {
		t.Errorf("got %+v", got)
	}
	if len(got.Participants) != 1 || got.Participants[0] != bob.ID {
		t.Errorf("participants = %v, want just %s", got.Participants, bob.ID)
	}
}

func TestDeleteConversation(t *testing.T) {
	db := testDB(t)
	ada := mustCreatePerson(t, db, "Ada")

	c := &Conversation{Participants: []string{ada.ID}, Date: "2024-03-01", Type: "phone"}
	if err := db.CreateConversation(c); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	if err := db.DeleteConversation(c.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	got, _ := db.GetConversation(c.ID)
	if got != nil {
		t.Error("conversation should be gone")
	}

	if err := db.DeleteConversation(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
