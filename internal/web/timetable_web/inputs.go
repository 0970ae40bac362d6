package timetable_web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

// TimetableQuery carries what the browser learned about the user's
// location before loading the page.
type TimetableQuery struct {
	Position      *timetable.Position
	LocationError *timetable.LocationError
}

func ParseTimetableQuery(values url.Values) (TimetableQuery, error) {
	var query TimetableQuery

	if code := strings.TrimSpace(values.Get("geo_error")); code != "" {
		parsed, err := strconv.Atoi(code)
		if err != nil {
			return TimetableQuery{}, fmt.Errorf("geo_error: %w", err)
		}
		query.LocationError = &timetable.LocationError{Code: parsed}
	}

	lat, lon := strings.TrimSpace(values.Get("lat")), strings.TrimSpace(values.Get("lon"))
	if lat == "" && lon == "" {
		return query, nil
	}

	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil || latitude < -90 || latitude > 90 {
		return TimetableQuery{}, fmt.Errorf("invalid latitude %q", lat)
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil || longitude < -180 || longitude > 180 {
		return TimetableQuery{}, fmt.Errorf("invalid longitude %q", lon)
	}

	query.Position = &timetable.Position{Latitude: latitude, Longitude: longitude}
	return query, nil
}

// BoardQuery holds the optional inputs of a single board request. Nil
// fields leave the board as it is.
type BoardQuery struct {
	Direction *schedule.Direction
	Sort      *timetable.Sort
}

func ParseBoardQuery(values url.Values) (BoardQuery, error) {
	var query BoardQuery

	if values.Has("direction") {
		direction, err := schedule.ParseDirection(values.Get("direction"))
		if err != nil {
			return BoardQuery{}, err
		}
		query.Direction = &direction
	}

	if values.Has("sort") {
		sort, err := timetable.ParseSort(strings.TrimSpace(values.Get("sort")), strings.TrimSpace(values.Get("order")))
		if err != nil {
			return BoardQuery{}, err
		}
		query.Sort = &sort
	}

	return query, nil
}
