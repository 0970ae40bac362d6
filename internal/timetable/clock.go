package timetable

import "time"

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (fn ClockFunc) Now() time.Time {
	return fn()
}

var SystemClock Clock = ClockFunc(time.Now)

func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
