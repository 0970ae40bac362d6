package timetable

import "time"

type ColumnKind int

const (
	ColumnID ColumnKind = iota
	ColumnTime
	ColumnRemarks
)

const (
	IDHeader      = "ID"
	RemarksHeader = "備考"
)

type Column struct {
	Key    string
	Header string
	Kind   ColumnKind
	Leg    Leg
	Hidden bool
}

// Columns derives the grid layout from route: a hidden ID column, one
// column per leg and the remarks column.
func Columns(route StopRoute) []Column {
	columns := make([]Column, 0, legCount+2)
	columns = append(columns, Column{Key: "id", Header: IDHeader, Kind: ColumnID, Hidden: true})

	for _, leg := range Legs {
		columns = append(columns, Column{
			Key:    leg.Key(),
			Header: Header(route, leg),
			Kind:   ColumnTime,
			Leg:    leg,
		})
	}

	return append(columns, Column{Key: "remarks", Header: RemarksHeader, Kind: ColumnRemarks})
}

type Cell struct {
	Text    string
	Enabled bool
}

type GridRow struct {
	ID      int
	Cells   [legCount]Cell
	Remarks string
}

func (row GridRow) HasRemarks() bool {
	return row.Remarks != ""
}

type Grid struct {
	Columns []Column
	Rows    []GridRow
}

// RenderGrid formats rows for display. Enablement is decided against now
// once per call; nothing is re-evaluated afterwards.
func RenderGrid(route StopRoute, rows []DisplayRow, now time.Time, location *time.Location) Grid {
	grid := Grid{
		Columns: Columns(route),
		Rows:    make([]GridRow, 0, len(rows)),
	}

	for _, row := range rows {
		gridRow := GridRow{ID: row.ID, Remarks: row.Remarks}
		for _, leg := range Legs {
			stopTime := row.Time(leg)
			gridRow.Cells[leg] = Cell{
				Text:    FormatClock(stopTime, location),
				Enabled: Enabled(stopTime, now, location),
			}
		}
		grid.Rows = append(grid.Rows, gridRow)
	}

	return grid
}
