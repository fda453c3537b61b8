package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearMonth_IsValid(t *testing.T) {
	assert.True(t, YM(2026, 1).IsValid())
	assert.True(t, YM(2000, 12).IsValid())
	assert.False(t, YM(1999, 12).IsValid())
	assert.False(t, YM(2101, 1).IsValid())
	assert.False(t, YM(2026, 0).IsValid())
	assert.False(t, YM(2026, 13).IsValid())
}

func TestYearMonth_String(t *testing.T) {
	assert.Equal(t, "2026-03", YM(2026, 3).String())
	assert.Equal(t, "2026-11", YM(2026, 11).String())
}

func TestYearMonth_ContainsHalfOpen(t *testing.T) {
	feb := YM(2026, 2)

	assert.True(t, feb.Contains(feb.Start()))
	assert.True(t, feb.Contains(Date(2026, 2, 28)))
	// The first instant of March belongs to March.
	assert.False(t, feb.Contains(feb.End()))
	assert.False(t, feb.Contains(Date(2026, 1, 31)))
}

func TestYearMonth_AddMonthsAcrossYear(t *testing.T) {
	assert.Equal(t, YM(2025, 12), YM(2026, 1).Prev())
	assert.Equal(t, YM(2026, 1), YM(2025, 11).AddMonths(2))
	assert.Equal(t, YM(2024, 10), YM(2026, 1).AddMonths(-15))
}

func TestYearMonth_Before(t *testing.T) {
	assert.True(t, YM(2025, 12).Before(YM(2026, 1)))
	assert.True(t, YM(2026, 1).Before(YM(2026, 2)))
	assert.False(t, YM(2026, 2).Before(YM(2026, 2)))
	assert.False(t, YM(2026, 3).Before(YM(2026, 2)))
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(YM(2026, 3), YM(2026, 3)))
	assert.Equal(t, 2, MonthsBetween(YM(2026, 1), YM(2026, 3)))
	assert.Equal(t, 4, MonthsBetween(YM(2025, 11), YM(2026, 3)))
	assert.Equal(t, -1, MonthsBetween(YM(2026, 4), YM(2026, 3)))
}

func TestYearMonthOf_SeoulBoundary(t *testing.T) {
	// 16:00 UTC on the last day of February is 01:00 March 1 in Seoul.
	utc := time.Date(2026, 2, 28, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, YM(2026, 3), YearMonthOf(utc))

	// 14:00 UTC is still 23:00 February 28 in Seoul.
	assert.Equal(t, YM(2026, 2), YearMonthOf(time.Date(2026, 2, 28, 14, 0, 0, 0, time.UTC)))
}

func TestTrailingDays(t *testing.T) {
	ref := time.Date(2026, 3, 15, 14, 30, 0, 0, SeoulTZ)
	w := TrailingDays(ref, 28)

	assert.Equal(t, Date(2026, 2, 16), w.From)
	assert.Equal(t, Date(2026, 3, 16), w.To)
	assert.Equal(t, 28, w.Days())

	// The reference day itself is covered in full.
	assert.True(t, w.Contains(ref))
	assert.True(t, w.Contains(Date(2026, 3, 15)))
	assert.False(t, w.Contains(w.To))
	assert.False(t, w.Contains(Date(2026, 2, 15)))
}

func TestMonthWindow(t *testing.T) {
	w := MonthWindow(YM(2026, 2))

	assert.Equal(t, Date(2026, 2, 1), w.From)
	assert.Equal(t, Date(2026, 3, 1), w.To)
	assert.Equal(t, 28, w.Days())

	leap := MonthWindow(YM(2028, 2))
	assert.Equal(t, 29, leap.Days())
}

func TestStartEndOfDay(t *testing.T) {
	// 20:00 UTC falls on the next Seoul calendar day.
	utc := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, Date(2026, 3, 11), StartOfDay(utc))
	assert.Equal(t, 23, EndOfDay(utc).Hour())
	assert.Equal(t, 11, EndOfDay(utc).Day())
}
