// Package birthday computes next-occurrence and age math for partial
// birthdates. A birthdate here is month/day with an optional year;
// zero fields mean unknown. Invalid calendar combinations (Feb 29 in a
// non-leap year) are reported through ok flags, never errors.
package birthday

import (
	"fmt"
	"time"
)

// Partial is a partial birthdate. Month and Day are only meaningful as
// a pair; Year may be zero when unknown.
type Partial struct {
	Month int
	Day   int
	Year  int
}

// Known reports whether the month/day pair is set.
func (p Partial) Known() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Day >= 1 && p.Day <= 31
}

// validDate reports whether year/month/day is a real calendar date, by
// checking that time.Date does not normalize it into a different day.
func validDate(year, month, day int) bool {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && int(d.Month()) == month && d.Day() == day
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Next returns the next occurrence of the birthday on or after today,
// and the number of days until it. If the month/day pair is unknown, or
// does not form a valid date in either candidate year, ok is false and
// the person contributes no result.
func Next(p Partial, today time.Time) (next time.Time, daysUntil int, ok bool) {
	if !p.Known() {
		return time.Time{}, 0, false
	}
	ref := midnight(today)

	for _, year := range []int{ref.Year(), ref.Year() + 1} {
		if !validDate(year, p.Month, p.Day) {
			continue
		}
		candidate := time.Date(year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC)
		if candidate.Before(ref) {
			continue
		}
		return candidate, int(candidate.Sub(ref).Hours() / 24), true
	}
	return time.Time{}, 0, false
}

// Age returns the person's age at the reference date. It is absent when
// the birth year or month/day pair is unknown, or when the birthdate is
// not a valid calendar date.
func Age(p Partial, today time.Time) (int, bool) {
	if !p.Known() || p.Year == 0 {
		return 0, false
	}
	if !validDate(p.Year, p.Month, p.Day) {
		return 0, false
	}
	ref := midnight(today)
	age := ref.Year() - p.Year

	// time.Date normalizes Feb 29 to Mar 1 in non-leap reference years,
	// which keeps the before/after comparison well defined.
	occurrence := time.Date(ref.Year(), time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC)
	if ref.Before(occurrence) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// Display formats a birthday for humans: "March 22" when the year is
// unknown, "March 22, 1990" otherwise. Unknown month/day yields "".
func Display(p Partial) string {
	if !p.Known() {
		return ""
	}
	s := fmt.Sprintf("%s %d", time.Month(p.Month), p.Day)
	if p.Year != 0 {
		s = fmt.Sprintf("%s, %d", s, p.Year)
	}
	return s
}
