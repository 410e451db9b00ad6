// Package renewals provides pure functions for vehicle document renewal
// calculations: date normalization, expiry classification, and service
// progress. These functions have ZERO dependencies on HTTP, database, or
// any other infrastructure — making them trivially testable and reusable.
// The current time is always an explicit parameter; nothing in this
// package reads the system clock.
package renewals

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is the sentinel value producers send when a document
// date is unknown or the vehicle has never held the document.
const NotAvailable = "Not available"

// farFuture stands in for absent or unparseable dates. Any day-delta
// computed against it is enormous and positive, so such documents can
// never classify as expiring.
var farFuture = time.Date(8640, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	dashDate  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// fallbackLayouts cover ISO and other formats seen from registry lookups.
var fallbackLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate normalizes a raw document date string to a midnight UTC instant.
// Document dates arrive from multiple producers (manual admin entry,
// registry lookups) in different conventions, so formats are tried in a
// strict priority order: DD-MM-YYYY, then DD/MM/YYYY, then the ISO-ish
// fallback layouts. Empty input, the NotAvailable sentinel, and anything
// unparseable all return the far-future sentinel instant — malformed data
// degrades to "never expiring" rather than failing the whole dashboard.
func ParseDate(input string) time.Time {
	s := strings.TrimSpace(input)
	if s == "" || s == NotAvailable {
		return farFuture
	}

	if t, ok := parseDayFirst(dashDate, s); ok {
		return t
	}
	if t, ok := parseDayFirst(slashDate, s); ok {
		return t
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDay(t.UTC())
		}
	}

	return farFuture
}

// parseDayFirst parses a day-month-year string matched by re.
// Rollover dates like 31-02-2023 are rejected: the constructed date must
// read back the exact day, month, and year that were parsed.
func parseDayFirst(re *regexp.Regexp, s string) (time.Time, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// IsAbsent reports whether a raw date string is the absent sentinel
// (empty or the literal NotAvailable value).
func IsAbsent(input string) bool {
	s := strings.TrimSpace(input)
	return s == "" || s == NotAvailable
}

// IsFarFuture reports whether an instant is the absent/unparseable sentinel.
func IsFarFuture(t time.Time) bool {
	return t.Equal(farFuture)
}

// truncateToDay reduces an instant to its calendar date, pinned to
// midnight UTC. The calendar date is read in the instant's own location,
// then re-anchored to UTC so deltas against parsed document dates (also
// midnight UTC) are always a whole number of days, regardless of the
// caller's timezone.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
