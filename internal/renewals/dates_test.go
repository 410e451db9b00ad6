package renewals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDatePreservesDayMonthYear(t *testing.T) {
	got := ParseDate("05-03-2025")

	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 5, got.Day())
}

func TestParseDateSlashFormat(t *testing.T) {
	got := ParseDate("17/11/2024")

	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.November, got.Month())
	assert.Equal(t, 17, got.Day())
}

func TestParseDateSingleDigitDayAndMonth(t *testing.T) {
	got := ParseDate("7-4-2026")

	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.April, got.Month())
	assert.Equal(t, 7, got.Day())
}

func TestParseDateRejectsRolloverDates(t *testing.T) {
	// 31-02-2023 must not silently resolve to March 3rd.
	assert.True(t, IsFarFuture(ParseDate("31-02-2023")))
	assert.True(t, IsFarFuture(ParseDate("31/04/2024")))
	assert.True(t, IsFarFuture(ParseDate("00-01-2024")))
	assert.True(t, IsFarFuture(ParseDate("15-13-2024")))
}

func TestParseDateISOFallback(t *testing.T) {
	got := ParseDate("2025-06-01")

	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 1, got.Day())
}

func TestParseDateSentinelInputs(t *testing.T) {
	farFutureFromAbsent := ParseDate(NotAvailable)

	assert.True(t, IsFarFuture(farFutureFromAbsent))
	assert.Equal(t, farFutureFromAbsent, ParseDate(""))
	assert.Equal(t, farFutureFromAbsent, ParseDate("   "))
	assert.Equal(t, 8640, farFutureFromAbsent.Year())
}

func TestParseDateGarbageDegradesToSentinel(t *testing.T) {
	assert.True(t, IsFarFuture(ParseDate("next tuesday")))
	assert.True(t, IsFarFuture(ParseDate("12-2025")))
	assert.True(t, IsFarFuture(ParseDate("2025-13-45")))
}

func TestIsAbsent(t *testing.T) {
	assert.True(t, IsAbsent(""))
	assert.True(t, IsAbsent("Not available"))
	assert.True(t, IsAbsent("  Not available  "))
	assert.False(t, IsAbsent("15-01-2025"))
	assert.False(t, IsAbsent("garbage"))
}
