package timetable

import (
	"fmt"
	"slices"
)

// Sort orders rows by the time at one leg. The zero value keeps fetch
// order.
type Sort struct {
	Active     bool
	Leg        Leg
	Descending bool
}

func ParseSort(legKey, order string) (Sort, error) {
	if legKey == "" {
		return Sort{}, nil
	}

	leg, err := ParseLeg(legKey)
	if err != nil {
		return Sort{}, err
	}

	switch order {
	case "", "asc":
		return Sort{Active: true, Leg: leg}, nil
	case "desc":
		return Sort{Active: true, Leg: leg, Descending: true}, nil
	}
	return Sort{}, fmt.Errorf("unknown sort order %q", order)
}

func (sort Sort) Order() string {
	if sort.Descending {
		return "desc"
	}
	return "asc"
}

// SortRows returns a sorted copy of rows. Rows with no time at the sort
// leg go last in either order, ties keep row id order.
func SortRows(rows []DisplayRow, sort Sort) []DisplayRow {
	sorted := slices.Clone(rows)
	if !sort.Active {
		return sorted
	}

	slices.SortStableFunc(sorted, func(a, b DisplayRow) int {
		timeA, timeB := a.Time(sort.Leg), b.Time(sort.Leg)
		switch {
		case !timeA.Valid && !timeB.Valid:
			return 0
		case !timeA.Valid:
			return 1
		case !timeB.Valid:
			return -1
		}

		cmp := timeA.At.Compare(timeB.At)
		if sort.Descending {
			return -cmp
		}
		return cmp
	})

	return sorted
}
