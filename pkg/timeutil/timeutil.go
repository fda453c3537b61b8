// Package timeutil provides timezone and calendar utilities for Seoul time (UTC+9).
// All academy operations (consultations, classes, billing cycles) run on Korea
// Standard Time, which has no DST, so a fixed zone is safe year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// SeoulTZ is the Korea Standard Time zone (UTC+9, no DST).
var SeoulTZ = time.FixedZone("Asia/Seoul", 9*60*60)

// Now returns the current time in Seoul timezone.
func Now() time.Time {
	return time.Now().In(SeoulTZ)
}

// ToSeoul converts a time to Seoul timezone.
func ToSeoul(t time.Time) time.Time {
	return t.In(SeoulTZ)
}

// Date creates a time in Seoul timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SeoulTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Seoul timezone.
func StartOfDay(t time.Time) time.Time {
	st := ToSeoul(t)
	return time.Date(st.Year(), st.Month(), st.Day(), 0, 0, 0, 0, SeoulTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Seoul timezone.
func EndOfDay(t time.Time) time.Time {
	st := ToSeoul(t)
	return time.Date(st.Year(), st.Month(), st.Day(), 23, 59, 59, 999999999, SeoulTZ)
}

// ══════════════════════════════════════════════════════════════════════════════
// YEAR-MONTH
// ══════════════════════════════════════════════════════════════════════════════

// YearMonth identifies a calendar month, the grouping unit for cohorts and
// risk snapshots.
type YearMonth struct {
	Year  int
	Month int // 1-12
}

// YM constructs a YearMonth.
func YM(year, month int) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// YearMonthOf returns the YearMonth containing t, evaluated in Seoul time.
func YearMonthOf(t time.Time) YearMonth {
	st := ToSeoul(t)
	return YearMonth{Year: st.Year(), Month: int(st.Month())}
}

// IsValid reports whether the YearMonth is a plausible calendar month.
func (ym YearMonth) IsValid() bool {
	return ym.Year >= 2000 && ym.Year <= 2100 && ym.Month >= 1 && ym.Month <= 12
}

// String returns the "YYYY-MM" representation.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Start returns the first instant of the month in Seoul timezone.
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, SeoulTZ)
}

// End returns the first instant of the next month in Seoul timezone.
// The month interval is [Start, End).
func (ym YearMonth) End() time.Time {
	return ym.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls within the month.
func (ym YearMonth) Contains(t time.Time) bool {
	st := ToSeoul(t)
	return !st.Before(ym.Start()) && st.Before(ym.End())
}

// AddMonths returns the YearMonth n months later (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	t := ym.Start().AddDate(0, n, 0)
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Prev returns the previous calendar month.
func (ym YearMonth) Prev() YearMonth {
	return ym.AddMonths(-1)
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// MonthsBetween returns how many whole months separate a from b (b - a).
func MonthsBetween(a, b YearMonth) int {
	return (b.Year-a.Year)*12 + (b.Month - a.Month)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION WINDOWS
// ══════════════════════════════════════════════════════════════════════════════

// Window is a half-open time interval [From, To) used to bound log queries
// and risk evaluation.
type Window struct {
	From time.Time
	To   time.Time
}

// TrailingDays returns a window covering the last n full days ending at the
// end of the day containing ref.
func TrailingDays(ref time.Time, n int) Window {
	to := StartOfDay(ref).AddDate(0, 0, 1)
	return Window{From: to.AddDate(0, 0, -n), To: to}
}

// MonthWindow returns the window covering the given calendar month.
func MonthWindow(ym YearMonth) Window {
	return Window{From: ym.Start(), To: ym.End()}
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Days returns the window length in whole days, rounded down.
func (w Window) Days() int {
	return int(w.To.Sub(w.From).Hours() / 24)
}

// String returns a compact representation for logging.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))
}
