package funnel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// cohortStudents builds n students first contacting in the given month
// via the given source, of which withTest scheduled a placement test and
// withEnrollment enrolled.
func cohortStudents(month timeutil.YearMonth, source string, n, withTest, withEnrollment int) []*student.Student {
	students := make([]*student.Student, 0, n)
	for i := 0; i < n; i++ {
		s := &student.Student{
			ID:             student.ID(fmt.Sprintf("stu-%s-%s-%d", month, source, i)),
			Status:         student.StatusInquiry,
			LeadSource:     student.LeadSource(source),
			FirstContactAt: month.Start().AddDate(0, 0, i%28),
		}
		if i < withTest {
			s.TestScheduledAt = s.FirstContactAt.AddDate(0, 0, 3)
		}
		if i < withEnrollment {
			s.Status = student.StatusEnrolled
			s.EnrolledAt = s.FirstContactAt.AddDate(0, 0, 7)
		}
		students = append(students, s)
	}
	return students
}

func TestAggregate_FunnelCounts(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	students := cohortStudents(jan, "blog", 20, 8, 5)

	records := Aggregate(students, PeriodFilter{})
	assert.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, jan, r.Key.Month)
	assert.Equal(t, student.LeadSource("blog"), r.Key.Source)
	assert.Equal(t, 20, r.Inquiries)
	assert.Equal(t, 8, r.TestsScheduled)
	assert.Equal(t, 5, r.Enrollments)

	assert.True(t, r.TestConversion.Valid)
	assert.Equal(t, 40, r.TestConversion.Percent)
	assert.Equal(t, 25, r.EnrollmentConversion.Percent)
}

func TestAggregate_UnclassifiedSource(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	students := append(
		cohortStudents(jan, "", 2, 0, 0),
		cohortStudents(jan, "   ", 1, 0, 0)...,
	)

	records := Aggregate(students, PeriodFilter{})
	assert.Len(t, records, 1)
	assert.Equal(t, student.LeadSourceUnclassified, records[0].Key.Source)
	assert.Equal(t, 3, records[0].Inquiries)
}

func TestAggregate_Ordering(t *testing.T) {
	students := append(
		cohortStudents(timeutil.YM(2026, 2), "referral", 1, 0, 0),
		cohortStudents(timeutil.YM(2026, 1), "sign", 1, 0, 0)...,
	)
	students = append(students, cohortStudents(timeutil.YM(2026, 1), "blog", 1, 0, 0)...)

	records := Aggregate(students, PeriodFilter{})
	assert.Len(t, records, 3)

	// Month ascending, then source ascending.
	assert.Equal(t, "2026-01/blog", records[0].Key.String())
	assert.Equal(t, "2026-01/sign", records[1].Key.String())
	assert.Equal(t, "2026-02/referral", records[2].Key.String())
}

func TestAggregate_Deterministic(t *testing.T) {
	students := append(
		cohortStudents(timeutil.YM(2025, 11), "blog", 4, 2, 1),
		cohortStudents(timeutil.YM(2026, 1), "referral", 3, 3, 2)...,
	)

	first := Aggregate(students, PeriodFilter{})
	second := Aggregate(students, PeriodFilter{})
	assert.Equal(t, first, second)
}

func TestAggregate_TrailingFilter(t *testing.T) {
	filter := PeriodFilter{TrailingMonths: 3, Reference: timeutil.YM(2026, 3)}

	students := append(
		cohortStudents(timeutil.YM(2025, 12), "blog", 5, 0, 0),
		cohortStudents(timeutil.YM(2026, 1), "blog", 4, 2, 1)...,
	)
	students = append(students, cohortStudents(timeutil.YM(2026, 3), "blog", 2, 0, 0)...)

	records := Aggregate(students, filter)
	assert.Len(t, records, 2)
	assert.Equal(t, timeutil.YM(2026, 1), records[0].Key.Month)
	assert.Equal(t, timeutil.YM(2026, 3), records[1].Key.Month)

	// Filtering drops cohorts, it never reshapes the surviving ones.
	assert.Equal(t, 4, records[0].Inquiries)
	assert.Equal(t, 50, records[0].TestConversion.Percent)
}

func TestPeriodFilter_Includes(t *testing.T) {
	f := PeriodFilter{TrailingMonths: 3, Reference: timeutil.YM(2026, 3)}

	assert.True(t, f.Includes(timeutil.YM(2026, 3)))
	assert.True(t, f.Includes(timeutil.YM(2026, 1)))
	assert.False(t, f.Includes(timeutil.YM(2025, 12)))
	// Future months sit outside a trailing window.
	assert.False(t, f.Includes(timeutil.YM(2026, 4)))

	unbounded := PeriodFilter{}
	assert.True(t, unbounded.Includes(timeutil.YM(2001, 1)))
}

func TestNewConversion(t *testing.T) {
	// Zero denominator is "no data", not 0%.
	assert.False(t, NewConversion(0, 0).Valid)
	assert.Equal(t, "-", NewConversion(0, 0).String())

	zero := NewConversion(0, 10)
	assert.True(t, zero.Valid)
	assert.Equal(t, 0, zero.Percent)
	assert.Equal(t, "0%", zero.String())

	assert.Equal(t, 67, NewConversion(2, 3).Percent)
	assert.Equal(t, 33, NewConversion(1, 3).Percent)
}

func TestTotals(t *testing.T) {
	records := []Record{
		{Inquiries: 20, TestsScheduled: 8, Enrollments: 5},
		{Inquiries: 10, TestsScheduled: 7, Enrollments: 4},
	}

	total := Totals(records)
	assert.Equal(t, 30, total.Inquiries)
	assert.Equal(t, 15, total.TestsScheduled)
	assert.Equal(t, 9, total.Enrollments)
	assert.Equal(t, 50, total.TestConversion.Percent)
	assert.Equal(t, 30, total.EnrollmentConversion.Percent)

	empty := Totals(nil)
	assert.False(t, empty.TestConversion.Valid)
}

func TestKeyFor_SeoulMonthBoundary(t *testing.T) {
	// 16:00 UTC on Jan 31 is already Feb 1 in Seoul.
	s := &student.Student{
		ID:             "stu-1",
		Status:         student.StatusInquiry,
		LeadSource:     "blog",
		FirstContactAt: time.Date(2026, 1, 31, 16, 0, 0, 0, time.UTC),
	}

	key := KeyFor(s)
	assert.Equal(t, timeutil.YM(2026, 2), key.Month)
}
