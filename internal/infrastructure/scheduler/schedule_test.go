package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

func TestMonthlySchedule_Next(t *testing.T) {
	s := NewMonthlySchedule(1, 4, 0, timeutil.SeoulTZ)

	// Mid-month rolls to the first of the next month.
	from := time.Date(2026, 3, 15, 12, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, time.Date(2026, 4, 1, 4, 0, 0, 0, timeutil.SeoulTZ), s.Next(from))

	// Before the run time on the scheduled day stays in the same month.
	early := time.Date(2026, 3, 1, 3, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, time.Date(2026, 3, 1, 4, 0, 0, 0, timeutil.SeoulTZ), s.Next(early))

	// Exactly at the run time rolls forward; a run never fires twice.
	at := time.Date(2026, 3, 1, 4, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, time.Date(2026, 4, 1, 4, 0, 0, 0, timeutil.SeoulTZ), s.Next(at))
}

func TestMonthlySchedule_NextAcrossYear(t *testing.T) {
	s := NewMonthlySchedule(1, 4, 0, timeutil.SeoulTZ)

	from := time.Date(2026, 12, 20, 0, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, time.Date(2027, 1, 1, 4, 0, 0, 0, timeutil.SeoulTZ), s.Next(from))
}

func TestMonthlySchedule_ClampsDayToMonthLength(t *testing.T) {
	s := NewMonthlySchedule(31, 4, 0, timeutil.SeoulTZ)

	// February 2026 has 28 days.
	from := time.Date(2026, 2, 10, 0, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, time.Date(2026, 2, 28, 4, 0, 0, 0, timeutil.SeoulTZ), s.Next(from))

	// April has 30.
	from = time.Date(2026, 4, 1, 0, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, time.Date(2026, 4, 30, 4, 0, 0, 0, timeutil.SeoulTZ), s.Next(from))
}

func TestMonthlySchedule_NilLocationDefaultsToUTC(t *testing.T) {
	s := NewMonthlySchedule(1, 0, 0, nil)

	from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), s.Next(from))
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)

	from := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(15*time.Minute), s.Next(from))
	assert.Equal(t, "@every 15m0s", s.String())
}
