package funnel

import (
	"sort"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COHORT AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// PeriodFilter bounds which cohorts appear in the output. The filter
// changes presentation only: counts are always computed from the full
// input, then cohorts outside the window are dropped from the result.
type PeriodFilter struct {
	// TrailingMonths keeps cohorts from the last N months relative to
	// Reference. Zero means no filtering.
	TrailingMonths int

	// Reference anchors the trailing window, usually "now".
	Reference timeutil.YearMonth
}

// Includes reports whether a cohort month passes the filter.
func (f PeriodFilter) Includes(ym timeutil.YearMonth) bool {
	if f.TrailingMonths <= 0 {
		return true
	}
	age := timeutil.MonthsBetween(ym, f.Reference)
	return age >= 0 && age < f.TrailingMonths
}

// Aggregate buckets students into (first-contact month, lead source)
// cohorts and computes funnel counts and conversions per cohort.
//
// Pure and deterministic: identical inputs yield identical output, with
// records ordered by month ascending, then source ascending. Safe for
// concurrent invocation.
//
// The funnel counts each student once per stage reached: every student
// is an inquiry; those with a test ever scheduled count toward stage
// two; those who ever enrolled count toward stage three. With clean
// data stage N+1 never exceeds stage N; real data can violate this
// around month boundaries, so it is not enforced here.
func Aggregate(students []*student.Student, filter PeriodFilter) []Record {
	type counts struct {
		inquiries int
		tests     int
		enrolled  int
	}
	buckets := make(map[Key]*counts)

	for _, s := range students {
		key := KeyFor(s)
		c := buckets[key]
		if c == nil {
			c = &counts{}
			buckets[key] = c
		}
		c.inquiries++
		if s.HasTestScheduled() {
			c.tests++
		}
		if s.HasEnrolled() {
			c.enrolled++
		}
	}

	records := make([]Record, 0, len(buckets))
	for key, c := range buckets {
		if !filter.Includes(key.Month) {
			continue
		}
		records = append(records, Record{
			Key:                  key,
			Inquiries:            c.inquiries,
			TestsScheduled:       c.tests,
			Enrollments:          c.enrolled,
			TestConversion:       NewConversion(c.tests, c.inquiries),
			EnrollmentConversion: NewConversion(c.enrolled, c.inquiries),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Key.Month != records[j].Key.Month {
			return records[i].Key.Month.Before(records[j].Key.Month)
		}
		return records[i].Key.Source < records[j].Key.Source
	})

	return records
}
