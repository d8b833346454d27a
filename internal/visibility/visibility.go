// Package visibility decides which records a requesting user may see.
//
// Conversations and contact attempts carry a private flag; a private
// record is visible only to its creator. People and relationships have
// no flag and are visible to everyone. The same predicate guards list
// endpoints, detail lookups and every dashboard aggregate, so a record
// hidden from a user cannot influence any number that user receives.
package visibility

import "github.com/tetherhq/tether/internal/store"

// Visible reports whether a record with the given privacy flag and
// creator may be seen by viewer.
func Visible(private bool, createdBy, viewer string) bool {
	return !private || createdBy == viewer
}

// Conversation reports whether viewer may see the conversation.
func Conversation(c *store.Conversation, viewer string) bool {
	return Visible(c.Private, c.CreatedBy, viewer)
}

// Attempt reports whether viewer may see the contact attempt.
func Attempt(a *store.ContactAttempt, viewer string) bool {
	return Visible(a.Private, a.CreatedBy, viewer)
}

// FilterConversations returns the conversations visible to viewer,
// preserving order.
func FilterConversations(convs []store.Conversation, viewer string) []store.Conversation {
	var out []store.Conversation
	for _, c := range convs {
		if Conversation(&c, viewer) {
			out = append(out, c)
		}
	}
	return out
}

// FilterAttempts returns the contact attempts visible to viewer,
// preserving order.
func FilterAttempts(attempts []store.ContactAttempt, viewer string) []store.ContactAttempt {
	var out []store.ContactAttempt
	for _, a := range attempts {
		if Attempt(&a, viewer) {
			out = append(out, a)
		}
	}
	return out
}
