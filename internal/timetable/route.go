package timetable

import "fmt"

// Leg is one of the four positions in a trip's stop sequence.
type Leg int

const (
	LegStart Leg = iota
	LegVia1
	LegVia2
	LegGoal
)

const legCount = 4

// Legs lists every leg in stop order.
var Legs = [legCount]Leg{LegStart, LegVia1, LegVia2, LegGoal}

var legKeys = [legCount]string{"start", "via1", "via2", "goal"}

func ParseLeg(key string) (Leg, error) {
	for _, leg := range Legs {
		if legKeys[leg] == key {
			return leg, nil
		}
	}
	return 0, fmt.Errorf("unknown leg %q", key)
}

// Key is the field name used on the wire and in query strings.
func (leg Leg) Key() string {
	if leg < 0 || int(leg) >= legCount {
		return fmt.Sprintf("leg(%d)", int(leg))
	}
	return legKeys[leg]
}

func (leg Leg) String() string {
	return leg.Key()
}

// Suffix is 発 (departs) for every leg but the goal, which gets 着 (arrives).
func (leg Leg) Suffix() string {
	if leg == LegGoal {
		return "着"
	}
	return "発"
}

// StopRoute names the stops of a board in travel order. It only labels
// columns and is never checked against fetched data.
type StopRoute struct {
	Start string `toml:"start" json:"start" validate:"required"`
	Via1  string `toml:"via1" json:"via1" validate:"required"`
	Via2  string `toml:"via2" json:"via2" validate:"required"`
	Goal  string `toml:"goal" json:"goal" validate:"required"`
}

func (route StopRoute) Stop(leg Leg) string {
	switch leg {
	case LegStart:
		return route.Start
	case LegVia1:
		return route.Via1
	case LegVia2:
		return route.Via2
	case LegGoal:
		return route.Goal
	}
	return ""
}

// Reversed is the same route travelled the other way.
func (route StopRoute) Reversed() StopRoute {
	return StopRoute{Start: route.Goal, Via1: route.Via2, Via2: route.Via1, Goal: route.Start}
}

// Header is the column label for leg on route, e.g. "千歳駅発".
func Header(route StopRoute, leg Leg) string {
	return route.Stop(leg) + leg.Suffix()
}
