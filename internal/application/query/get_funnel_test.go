package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

type fakeFunnelCache struct {
	stored *GetFunnelResult
	gets   int
	sets   int
}

func (f *fakeFunnelCache) Get(_ context.Context, _ int) (*GetFunnelResult, bool) {
	f.gets++
	if f.stored == nil {
		return nil, false
	}
	return f.stored, true
}

func (f *fakeFunnelCache) Set(_ context.Context, _ int, result *GetFunnelResult) {
	f.sets++
	f.stored = result
}

func inquiry(id, source string, contact timeutil.YearMonth, test, enrolledStage bool) *student.Student {
	s := &student.Student{
		ID:             student.ID(id),
		Status:         student.StatusInquiry,
		LeadSource:     student.LeadSource(source),
		FirstContactAt: contact.Start(),
	}
	if test {
		s.TestScheduledAt = s.FirstContactAt.AddDate(0, 0, 3)
	}
	if enrolledStage {
		s.Status = student.StatusEnrolled
		s.EnrolledAt = s.FirstContactAt.AddDate(0, 0, 7)
	}
	return s
}

func TestGetFunnelHandler_BuildsCohorts(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	feb := timeutil.YM(2026, 2)

	students := &fakeStudentRepo{students: []*student.Student{
		inquiry("stu-1", "blog", jan, true, true),
		inquiry("stu-2", "blog", jan, true, false),
		inquiry("stu-3", "blog", jan, false, false),
		inquiry("stu-4", "referral", feb, false, false),
	}}

	h := NewGetFunnelHandler(students, nil, nil, quietLogger())

	result, err := h.Handle(context.Background(), GetFunnelQuery{})
	assert.NoError(t, err)
	assert.Len(t, result.Cohorts, 2)

	blog := result.Cohorts[0]
	assert.Equal(t, "2026-01", blog.Month)
	assert.Equal(t, "blog", blog.LeadSource)
	assert.Equal(t, 3, blog.Inquiries)
	assert.Equal(t, 2, blog.TestsScheduled)
	assert.Equal(t, 1, blog.Enrollments)
	assert.NotNil(t, blog.TestConversion.Percent)
	assert.Equal(t, 67, *blog.TestConversion.Percent)
	assert.Equal(t, 33, *blog.EnrollmentConversion.Percent)

	referral := result.Cohorts[1]
	assert.Equal(t, "2026-02", referral.Month)
	assert.NotNil(t, referral.TestConversion.Percent)
	assert.Equal(t, 0, *referral.TestConversion.Percent)

	assert.Equal(t, 4, result.Totals.Inquiries)
	assert.Equal(t, 2, result.Totals.TestsScheduled)
	assert.Equal(t, 1, result.Totals.Enrollments)
}

func TestGetFunnelHandler_EmptyDataset(t *testing.T) {
	h := NewGetFunnelHandler(&fakeStudentRepo{}, nil, nil, quietLogger())

	result, err := h.Handle(context.Background(), GetFunnelQuery{})
	assert.NoError(t, err)
	assert.Empty(t, result.Cohorts)
	// No inquiries means no conversion to speak of, not a 0% one.
	assert.Nil(t, result.Totals.TestConversion.Percent)
}

func TestGetFunnelHandler_CachesResult(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{
		inquiry("stu-1", "blog", timeutil.YM(2026, 1), false, false),
	}}
	cache := &fakeFunnelCache{}

	h := NewGetFunnelHandler(students, cache, nil, quietLogger())

	first, err := h.Handle(context.Background(), GetFunnelQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := h.Handle(context.Background(), GetFunnelQuery{})
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestGetFunnelHandler_ValidatesQuery(t *testing.T) {
	h := NewGetFunnelHandler(&fakeStudentRepo{}, nil, nil, quietLogger())

	_, err := h.Handle(context.Background(), GetFunnelQuery{TrailingMonths: -1})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), GetFunnelQuery{TrailingMonths: 61})
	assert.Error(t, err)
}
