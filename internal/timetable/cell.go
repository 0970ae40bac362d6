package timetable

import "time"

// FormatClock renders a present time as zero padded 24-hour HH:MM in
// location, and an absent one as "".
func FormatClock(stopTime StopTime, location *time.Location) string {
	if !stopTime.Valid {
		return ""
	}
	return stopTime.At.In(location).Format("15:04")
}

// Enabled reports whether a cell is still upcoming. Absent times are always
// enabled; a time in the current minute still counts as upcoming.
func Enabled(stopTime StopTime, now time.Time, location *time.Location) bool {
	if !stopTime.Valid {
		return true
	}

	at := stopTime.At.In(location)
	now = now.In(location)

	if at.Hour() != now.Hour() {
		return at.Hour() > now.Hour()
	}
	return at.Minute() >= now.Minute()
}
