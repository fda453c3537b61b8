// Package funnel contains the marketing cohort analytics: students
// bucketed by acquisition month and lead source, tracked through the
// inquiry -> test -> enrollment funnel. Pure domain layer.
package funnel

import (
	"fmt"
	"math"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COHORT KEY
// ══════════════════════════════════════════════════════════════════════════════

// Key identifies a cohort: the month of first contact crossed with the
// lead source. First contact (not enrollment) is the canonical cohort
// field - the funnel starts at inquiry, so a cohort is "everyone who
// first reached out in month M via source S".
type Key struct {
	Month  timeutil.YearMonth
	Source student.LeadSource
}

// KeyFor derives the cohort key for a student. Students without a
// recorded source land in the explicit unclassified bucket, never
// dropped.
func KeyFor(s *student.Student) Key {
	return Key{
		Month:  timeutil.YearMonthOf(s.FirstContactAt),
		Source: s.LeadSource.Normalize(),
	}
}

// String returns "YYYY-MM/source".
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Month, k.Source)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

// Conversion is a funnel-stage conversion rate. When the prior stage
// count is zero there is nothing to convert from, and the rate is "no
// data" - semantically different from 0%, which means "many tried, none
// converted".
type Conversion struct {
	Percent int
	Valid   bool
}

// NewConversion computes round(numerator/denominator*100), or no-data
// when the denominator is zero.
func NewConversion(numerator, denominator int) Conversion {
	if denominator == 0 {
		return Conversion{}
	}
	return Conversion{
		Percent: int(math.Round(float64(numerator) / float64(denominator) * 100)),
		Valid:   true,
	}
}

// String renders the conversion for logs, "-" when absent.
func (c Conversion) String() string {
	if !c.Valid {
		return "-"
	}
	return fmt.Sprintf("%d%%", c.Percent)
}

// ══════════════════════════════════════════════════════════════════════════════
// COHORT RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record holds one cohort's funnel counts and conversions. Immutable
// once built.
type Record struct {
	Key Key

	// Funnel stage counts, in order. Inquiries counts every student in
	// the cohort; TestsScheduled and Enrollments count those who reached
	// the later stages.
	Inquiries      int
	TestsScheduled int
	Enrollments    int

	// TestConversion - tests scheduled / inquiries.
	TestConversion Conversion

	// EnrollmentConversion - enrollments / inquiries.
	EnrollmentConversion Conversion
}

// Totals sums funnel counts across records and derives aggregate
// conversions.
func Totals(records []Record) Record {
	var t Record
	for _, r := range records {
		t.Inquiries += r.Inquiries
		t.TestsScheduled += r.TestsScheduled
		t.Enrollments += r.Enrollments
	}
	t.TestConversion = NewConversion(t.TestsScheduled, t.Inquiries)
	t.EnrollmentConversion = NewConversion(t.Enrollments, t.Inquiries)
	return t
}
