package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{
		Interval: interval,
	}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// MonthlySchedule runs a job once a month on a fixed day at a fixed
// time, in the schedule's location. Day values above a month's length
// clamp to the month's last day.
type MonthlySchedule struct {
	Day      int
	Hour     int
	Minute   int
	Location *time.Location
}

// NewMonthlySchedule creates a MonthlySchedule.
func NewMonthlySchedule(day, hour, minute int, loc *time.Location) *MonthlySchedule {
	if loc == nil {
		loc = time.UTC
	}
	return &MonthlySchedule{Day: day, Hour: hour, Minute: minute, Location: loc}
}

// Next returns the next scheduled time after t.
func (s *MonthlySchedule) Next(t time.Time) time.Time {
	t = t.In(s.Location)

	next := s.forMonth(t.Year(), t.Month())
	if next.After(t) {
		return next
	}
	return s.forMonth(t.Year(), t.Month()+1)
}

func (s *MonthlySchedule) forMonth(year int, month time.Month) time.Time {
	day := s.Day
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, s.Location).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, s.Hour, s.Minute, 0, 0, s.Location)
}

// String returns the string representation of the schedule.
func (s *MonthlySchedule) String() string {
	return fmt.Sprintf("@monthly day=%d %02d:%02d %s", s.Day, s.Hour, s.Minute, s.Location)
}
