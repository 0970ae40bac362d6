package schedule

import (
	"fmt"
	"strings"
)

// Direction selects which of the two fixed schedule tables is fetched.
type Direction string

const (
	Outward  Direction = "outward"
	Homeward Direction = "homeward"
)

// Directions lists every direction in display order.
var Directions = []Direction{Outward, Homeward}

func ParseDirection(value string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(value))) {
	case Outward:
		return Outward, nil
	case Homeward:
		return Homeward, nil
	}
	return "", fmt.Errorf("unknown direction %q: expected %q or %q", value, Outward, Homeward)
}

func (direction Direction) Valid() bool {
	return direction == Outward || direction == Homeward
}

func (direction Direction) String() string {
	return string(direction)
}

// RawSlot is one scheduled trip as delivered by the endpoint. Each time
// field is either empty (no service at that stop) or a timestamp string.
type RawSlot struct {
	Start   string `json:"start"`
	Via1    string `json:"via1"`
	Via2    string `json:"via2"`
	Goal    string `json:"goal"`
	Remarks string `json:"remarks"`
}

// Response is the envelope returned by the endpoint. Values is order
// significant.
type Response struct {
	Values []RawSlot `json:"values"`
}
