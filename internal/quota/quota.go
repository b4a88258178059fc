// Package quota defines the per-user daily generation allowance contract.
//
// A user's dosage is the number of generations left in the current calendar
// day. Day boundaries are anchored to UTC: a record whose resettime is not
// today's UTC date is stale and must be reset to the daily allowance before
// any read or decrement is honored.
package quota

import "time"

// DefaultDailyDosage is the allowance granted at signup and on each daily reset.
const DefaultDailyDosage = 10

// dayLayout is the calendar-day string stored in resettime.
const dayLayout = "2006-01-02"

// Status is the outcome of a check or consume call.
type Status struct {
	Dosage      int
	CanGenerate bool
}

// Store persists per-user dosage records.
//
// Implementations must make the stale-day reset and the decrement atomic with
// respect to concurrent calls for the same uid: two simultaneous Consume calls
// on a dosage of 1 must not both succeed.
type Store interface {
	// Check returns the current dosage, resetting it first if the record's
	// day is stale. Returns errs.ErrNotFound for an unknown uid.
	Check(uid string) (Status, error)

	// Consume decrements the dosage by one after applying any stale-day
	// reset. Returns errs.ErrQuotaExhausted, without mutating, when the
	// dosage is already zero.
	Consume(uid string) (Status, error)

	// Reset unconditionally restores the daily allowance.
	Reset(uid string) (Status, string, error)

	// Ensure creates the record with the default allowance if absent.
	// Existing records are left untouched.
	Ensure(uid string) error
}

// Today returns the current UTC calendar day string.
func Today() string {
	return time.Now().UTC().Format(dayLayout)
}

// DayString formats a time as a calendar-day string in UTC.
func DayString(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// IsStale reports whether a stored resettime day is not the given day.
func IsStale(resettime, today string) bool {
	return resettime != today
}
