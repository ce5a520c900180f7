package store

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TimeLayout is the timestamp format used in the sign-in CSV.
// Timestamps are local time; the kiosk has no reason to care about zones.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one sign-in row in a day's log.
//
// A record is immutable once appended. At most one record exists per
// (day, ID) pair; Append enforces this.
type Record struct {
	// ID is the normalized student identifier (badge number, typed ID).
	ID string

	// Name is the display name as it should appear in the log,
	// e.g. "A. Smith".
	Name string

	// Time is when the sign-in happened, local time.
	Time time.Time

	// Photo is the verification photo filename under photos/,
	// empty if the sign-in was recorded without a photo.
	Photo string
}

// Validate checks that the record has the fields required to persist it.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("identifier is required")
	}
	if r.Name == "" {
		return fmt.Errorf("display name is required")
	}
	if r.Time.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// PhotoName derives the photo filename for a record:
// <Last>_<First>_<HHMM>_<ID>.jpg, e.g. "Smith_A_0902_101.jpg".
//
// The pattern embeds enough of the record to re-associate a photo with
// its row after a crash, so it must stay derivable from record fields
// alone. Name parts are stripped of anything that isn't a letter or
// digit so the result is always a safe filename.
func PhotoName(name, id string, ts time.Time) string {
	first, last := splitName(name)
	return fmt.Sprintf("%s_%s_%s_%s.jpg",
		sanitizePart(last),
		sanitizePart(first),
		ts.Format("1504"),
		sanitizePart(id))
}

// splitName breaks a display name into first and last parts.
// The last whitespace-separated token is the last name; everything
// before it is the first name. Single-token names double as both.
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "Unknown", "Unknown"
	case 1:
		return fields[0], fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], ""), fields[len(fields)-1]
	}
}

// sanitizePart keeps letters and digits only.
func sanitizePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}
