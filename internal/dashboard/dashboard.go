// Package dashboard builds the derived-analytics payload: recent
// activity, top contacts, reach-out suggestions, monthly series and
// upcoming birthdays. Everything is computed fresh per request against
// the store, with the visibility filter applied before any counting so
// records hidden from the viewer influence nothing they receive.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/tetherhq/tether/internal/birthday"
	"github.com/tetherhq/tether/internal/store"
	"github.com/tetherhq/tether/internal/visibility"
)

const (
	recentWindowDays  = 365
	countWindowDays   = 730
	reachOutQuietDays = 180
	reachOutMinCount  = 3
	listCap           = 10
	birthdayAheadDays = 30
	monthlyEntries    = 12
)

// Dashboard is the analytics payload for one viewer at one instant.
type Dashboard struct {
	RecentConversations []Conversation   `json:"recent_conversations"`
	TopContacts         []Contact        `json:"top_contacts"`
	ActivityOverview    ActivityOverview `json:"activity_overview"`
	PeopleToReachOut    []Contact        `json:"people_to_reach_out"`
	MonthlyActivity     []MonthActivity  `json:"monthly_activity"`
	UpcomingBirthdays   []BirthdayEntry  `json:"upcoming_birthdays"`
}

// Conversation is a conversation enriched with participant names.
type Conversation struct {
	store.Conversation
	ParticipantNames []string `json:"participant_names"`
}

// Contact is a person plus their visible conversation count within the
// ranking window.
type Contact struct {
	PersonID          string `json:"person_id"`
	Name              string `json:"name"`
	ConversationCount int    `json:"conversation_count"`
	LastConversation  string `json:"last_conversation,omitempty"`
}

// ActivityOverview counts visible conversations and contact attempts
// over trailing windows.
type ActivityOverview struct {
	Conversations7d     int `json:"conversations_7d"`
	Conversations30d    int `json:"conversations_30d"`
	Conversations365d   int `json:"conversations_365d"`
	ContactAttempts7d   int `json:"contact_attempts_7d"`
	ContactAttempts30d  int `json:"contact_attempts_30d"`
	ContactAttempts365d int `json:"contact_attempts_365d"`
}

// MonthActivity is one calendar month of the activity series.
type MonthActivity struct {
	Label           string `json:"month"`
	Conversations   int    `json:"conversations"`
	ContactAttempts int    `json:"contact_attempts"`
}

// BirthdayEntry is one upcoming birthday.
type BirthdayEntry struct {
	PersonID        string `json:"person_id"`
	Name            string `json:"name"`
	BirthdayDisplay string `json:"birthday_display"`
	Date            string `json:"date"`
	DaysUntil       int    `json:"days_until"`
	IsToday         bool   `json:"is_today"`
	Age             *int   `json:"age,omitempty"`
}

// Build assembles the dashboard for viewer at the given reference time.
func Build(db *store.DB, viewer string, today time.Time) (*Dashboard, error) {
	cut := func(days int) string {
		return today.AddDate(0, 0, -days).Format(store.DateLayout)
	}

	people, err := db.ListPeopleByCreation()
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	names := make(map[string]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}

	// The monthly series reaches back to the start of the month eleven
	// months ago, which can sit just outside the 365-day cutoff. The
	// 730-day conversation window covers it; attempts get their own cutoff.
	firstMonth := monthStart(today, -(monthlyEntries - 1))
	attemptsCut := cut(recentWindowDays)
	if s := firstMonth.Format(store.DateLayout); s < attemptsCut {
		attemptsCut = s
	}

	convs, err := db.ConversationsSince(cut(countWindowDays))
	if err != nil {
		return nil, fmt.Errorf("conversations window: %w", err)
	}
	convs = visibility.FilterConversations(convs, viewer)

	attempts, err := db.AttemptsSince(attemptsCut)
	if err != nil {
		return nil, fmt.Errorf("attempts window: %w", err)
	}
	attempts = visibility.FilterAttempts(attempts, viewer)

	d := &Dashboard{
		RecentConversations: recentConversations(convs, names, cut(recentWindowDays)),
		ActivityOverview:    overview(convs, attempts, cut(7), cut(30), cut(recentWindowDays)),
		MonthlyActivity:     monthlySeries(convs, attempts, today),
	}

	counts, lastDates := perPersonCounts(convs)
	quietCounts, _ := perPersonCounts(filterSince(convs, cut(reachOutQuietDays)))
	d.TopContacts = topContacts(people, counts, lastDates)
	d.PeopleToReachOut = reachOutCandidates(people, counts, quietCounts, lastDates)

	timeline, err := BirthdayTimeline(db, today, birthdayAheadDays)
	if err != nil {
		return nil, err
	}
	d.UpcomingBirthdays = timeline

	return d, nil
}

func recentConversations(convs []store.Conversation, names map[string]string, cutoff string) []Conversation {
	out := []Conversation{}
	for _, c := range convs {
		if c.Date < cutoff {
			continue
		}
		entry := Conversation{Conversation: c}
		for _, pid := range c.Participants {
			if name, ok := names[pid]; ok {
				entry.ParticipantNames = append(entry.ParticipantNames, name)
			}
		}
		out = append(out, entry)
		if len(out) == listCap {
			break
		}
	}
	return out
}

func overview(convs []store.Conversation, attempts []store.ContactAttempt, cut7, cut30, cut365 string) ActivityOverview {
	var o ActivityOverview
	for _, c := range convs {
		if c.Date >= cut365 {
			o.Conversations365d++
		}
		if c.Date >= cut30 {
			o.Conversations30d++
		}
		if c.Date >= cut7 {
			o.Conversations7d++
		}
	}
	for _, a := range attempts {
		if a.Date >= cut365 {
			o.ContactAttempts365d++
		}
		if a.Date >= cut30 {
			o.ContactAttempts30d++
		}
		if a.Date >= cut7 {
			o.ContactAttempts7d++
		}
	}
	return o
}

func filterSince(convs []store.Conversation, cutoff string) []store.Conversation {
	var out []store.Conversation
	for _, c := range convs {
		if c.Date >= cutoff {
			out = append(out, c)
		}
	}
	return out
}

// perPersonCounts tallies conversations per participant. Conversations
// arrive newest first, so the first date seen per person is their most
// recent one.
func perPersonCounts(convs []store.Conversation) (map[string]int, map[string]string) {
	counts := make(map[string]int)
	last := make(map[string]string)
	for _, c := range convs {
		for _, pid := range c.Participants {
			counts[pid]++
			if _, ok := last[pid]; !ok {
				last[pid] = c.Date
			}
		}
	}
	return counts, last
}

// topContacts ranks people by visible conversation count, descending.
// The stable sort over insertion order realizes the id-order tie-break.
func topContacts(people []store.Person, counts map[string]int, last map[string]string) []Contact {
	out := []Contact{}
	for _, p := range people {
		if counts[p.ID] == 0 {
			continue
		}
		out = append(out, Contact{
			PersonID:          p.ID,
			Name:              p.Name,
			ConversationCount: counts[p.ID],
			LastConversation:  last[p.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConversationCount > out[j].ConversationCount
	})
	if len(out) > listCap {
		out = out[:listCap]
	}
	return out
}

// reachOutCandidates selects people with an established history but no
// recent contact: at least reachOutMinCount conversations in the long
// window and none in the quiet window.
func reachOutCandidates(people []store.Person, counts, quietCounts map[string]int, last map[string]string) []Contact {
	out := []Contact{}
	for _, p := range people {
		if counts[p.ID] < reachOutMinCount || quietCounts[p.ID] > 0 {
			continue
		}
		out = append(out, Contact{
			PersonID:          p.ID,
			Name:              p.Name,
			ConversationCount: counts[p.ID],
			LastConversation:  last[p.ID],
		})
		if len(out) == listCap {
			break
		}
	}
	return out
}

func monthStart(today time.Time, offsetMonths int) time.Time {
	return time.Date(today.Year(), today.Month()+time.Month(offsetMonths), 1, 0, 0, 0, 0, time.UTC)
}

// monthlySeries builds twelve calendar-month buckets ending with the
// current month, oldest first. The current month's end is clamped to
// today rather than the calendar month end.
func monthlySeries(convs []store.Conversation, attempts []store.ContactAttempt, today time.Time) []MonthActivity {
	out := make([]MonthActivity, 0, monthlyEntries)
	todayStr := today.Format(store.DateLayout)

	for i := -(monthlyEntries - 1); i <= 0; i++ {
		start := monthStart(today, i)
		end := start.AddDate(0, 1, -1)
		startStr := start.Format(store.DateLayout)
		endStr := end.Format(store.DateLayout)
		if endStr > todayStr {
			endStr = todayStr
		}

		m := MonthActivity{Label: start.Format("Jan 2006")}
		for _, c := range convs {
			if c.Date >= startStr && c.Date <= endStr {
				m.Conversations++
			}
		}
		for _, a := range attempts {
			if a.Date >= startStr && a.Date <= endStr {
				m.ContactAttempts++
			}
		}
		out = append(out, m)
	}
	return out
}

// BirthdayTimeline returns everyone whose next birthday falls within
// daysAhead days, soonest first. People without a known month/day, or
// whose month/day never forms a valid date in the lookahead, are
// skipped.
func BirthdayTimeline(db *store.DB, today time.Time, daysAhead int) ([]BirthdayEntry, error) {
	people, err := db.ListPeopleByCreation()
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}

	out := []BirthdayEntry{}
	for _, p := range people {
		partial := birthday.Partial{Month: p.BirthdayMonth, Day: p.BirthdayDay, Year: p.BirthdayYear}
		next, days, ok := birthday.Next(partial, today)
		if !ok || days > daysAhead {
			continue
		}
		entry := BirthdayEntry{
			PersonID:        p.ID,
			Name:            p.Name,
			BirthdayDisplay: birthday.Display(partial),
			Date:            next.Format(store.DateLayout),
			DaysUntil:       days,
			IsToday:         days == 0,
		}
		if age, ok := birthday.Age(partial, today); ok {
			entry.Age = &age
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out, nil
}
