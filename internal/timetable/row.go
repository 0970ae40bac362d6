package timetable

import (
	"fmt"
	"time"

	"tarediiran-industries.com/bus-timetable/internal/schedule"
)

// StopTime is an optional time of day. Valid is false when the source had
// no service at that stop.
type StopTime struct {
	At    time.Time
	Valid bool
}

func At(t time.Time) StopTime {
	return StopTime{At: t, Valid: true}
}

// DisplayRow is a RawSlot after parsing. ID is the slot's position in the
// fetched list and is not stable across refetches.
type DisplayRow struct {
	ID      int
	Times   [legCount]StopTime
	Remarks string
}

func (row DisplayRow) Time(leg Leg) StopTime {
	if leg < 0 || int(leg) >= legCount {
		return StopTime{}
	}
	return row.Times[leg]
}

func (row DisplayRow) HasRemarks() bool {
	return row.Remarks != ""
}

// ParseError rejects a fetch that carried a non-empty time field that is
// not a timestamp.
type ParseError struct {
	Row   int
	Leg   Leg
	Value string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("row %d: %s: invalid time %q", err.Row, err.Leg, err.Value)
}

// Zone-less layouts are read in the view's location. RFC 3339 input keeps
// its offset and is converted. Fractional seconds are accepted after the
// seconds field by every layout that has one.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

func ParseStopTime(value string, location *time.Location) (StopTime, bool) {
	if value == "" {
		return StopTime{}, true
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return At(t.In(location)), true
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, location); err == nil {
			return At(t), true
		}
	}

	return StopTime{}, false
}

func toDisplayRow(id int, slot schedule.RawSlot, location *time.Location) (DisplayRow, error) {
	row := DisplayRow{ID: id, Remarks: slot.Remarks}

	fields := [legCount]string{
		LegStart: slot.Start,
		LegVia1:  slot.Via1,
		LegVia2:  slot.Via2,
		LegGoal:  slot.Goal,
	}

	for _, leg := range Legs {
		stopTime, ok := ParseStopTime(fields[leg], location)
		if !ok {
			return DisplayRow{}, &ParseError{Row: id, Leg: leg, Value: fields[leg]}
		}
		row.Times[leg] = stopTime
	}

	return row, nil
}

// ToDisplayRows converts a whole response. A single bad timestamp fails
// the lot so that no invalid time ever reaches a view.
func ToDisplayRows(response schedule.Response, location *time.Location) ([]DisplayRow, error) {
	rows := make([]DisplayRow, 0, len(response.Values))
	for id, slot := range response.Values {
		row, err := toDisplayRow(id, slot, location)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
