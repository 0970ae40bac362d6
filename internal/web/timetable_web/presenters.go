package timetable_web

import (
	"fmt"
	"net/url"
	"time"

	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

const pageTitle = "バス時刻表"

func boardURL(name string) string {
	return "/timetable/boards/" + url.PathEscape(name)
}

func formatStamp(t time.Time, location *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(location).Format("15:04:05")
}

// sortLink cycles a column through ascending, descending and fetch order.
func sortLink(name string, current timetable.Sort, leg timetable.Leg) (string, string) {
	values := url.Values{}
	indicator := ""

	switch {
	case current.Active && current.Leg == leg && !current.Descending:
		values.Set("sort", leg.Key())
		values.Set("order", "desc")
		indicator = " ▲"
	case current.Active && current.Leg == leg:
		values.Set("sort", "")
		indicator = " ▼"
	default:
		values.Set("sort", leg.Key())
		values.Set("order", "asc")
	}

	return boardURL(name) + "?" + values.Encode(), indicator
}

func BuildBoardVM(rendering timetable.Rendering, location *time.Location) BoardVM {
	base := boardURL(rendering.Name)

	vm := BoardVM{
		Name:      rendering.Name,
		Summary:   rendering.Summary,
		Direction: rendering.Direction.String(),
		State:     rendering.State.String(),
		Expanded:  rendering.Expanded,
		LoadedAt:  formatStamp(rendering.LoadedAt, location),
		BoardURL:  base,
		ToggleURL: base + "/toggle",
		Columns:   make([]ColumnVM, 0, len(rendering.Grid.Columns)),
		Rows:      make([]RowVM, 0, len(rendering.Grid.Rows)),
	}

	for _, direction := range schedule.Directions {
		vm.Directions = append(vm.Directions, DirectionOptionVM{
			Value:    direction.String(),
			URL:      base + "?direction=" + url.QueryEscape(direction.String()),
			Selected: direction == rendering.Direction,
		})
	}

	for _, notification := range rendering.Notifications {
		vm.Notifications = append(vm.Notifications, NotificationVM{
			Kind:    string(notification.Kind),
			Message: notification.Message,
		})
	}

	if rendering.Dialog.Open {
		vm.Dialog = DialogVM{
			Open:     true,
			RowID:    rendering.Dialog.RowID,
			Text:     rendering.Dialog.Text,
			CloseURL: base + "/remarks/close",
		}
	}

	for _, column := range rendering.Grid.Columns {
		if column.Hidden {
			continue
		}
		columnVM := ColumnVM{Key: column.Key, Header: column.Header}
		if column.Kind == timetable.ColumnTime {
			columnVM.SortURL, columnVM.SortIndicator = sortLink(rendering.Name, rendering.Sort, column.Leg)
		}
		vm.Columns = append(vm.Columns, columnVM)
	}

	for _, row := range rendering.Grid.Rows {
		rowVM := RowVM{
			ID:         row.ID,
			Cells:      make([]CellVM, 0, len(row.Cells)),
			HasRemarks: row.HasRemarks(),
		}
		for _, cell := range row.Cells {
			rowVM.Cells = append(rowVM.Cells, CellVM{Text: cell.Text, Enabled: cell.Enabled})
		}
		if rowVM.HasRemarks {
			rowVM.RemarksURL = fmt.Sprintf("%s/remarks/%d", base, row.ID)
		}
		vm.Rows = append(vm.Rows, rowVM)
	}

	return vm
}

func BuildTimetablePageVM(renderings []timetable.Rendering, now time.Time, location *time.Location) TimetablePageVM {
	vm := TimetablePageVM{
		Title:      pageTitle,
		RenderedAt: formatStamp(now, location),
		Boards:     make([]BoardVM, 0, len(renderings)),
	}
	for _, rendering := range renderings {
		vm.Boards = append(vm.Boards, BuildBoardVM(rendering, location))
	}
	return vm
}

func BuildBoardJSON(rendering timetable.Rendering, location *time.Location) BoardJSON {
	out := BoardJSON{
		Name:       rendering.Name,
		Summary:    rendering.Summary,
		Direction:  rendering.Direction.String(),
		State:      rendering.State.String(),
		RenderedAt: rendering.RenderedAt.In(location).Format(time.RFC3339),
		Columns:    make([]ColumnJSON, 0, len(rendering.Grid.Columns)),
		Rows:       make([]RowJSON, 0, len(rendering.Grid.Rows)),
	}
	if !rendering.LoadedAt.IsZero() {
		out.LoadedAt = rendering.LoadedAt.In(location).Format(time.RFC3339)
	}
	for _, notification := range rendering.Notifications {
		out.Errors = append(out.Errors, NotificationJSON{
			Kind:    string(notification.Kind),
			Message: notification.Message,
		})
	}

	for _, column := range rendering.Grid.Columns {
		out.Columns = append(out.Columns, ColumnJSON{Key: column.Key, Header: column.Header, Hidden: column.Hidden})
	}

	for _, row := range rendering.Grid.Rows {
		rowJSON := RowJSON{ID: row.ID, Remarks: row.Remarks, Cells: make([]CellJSON, 0, len(row.Cells))}
		for _, leg := range timetable.Legs {
			cell := row.Cells[leg]
			rowJSON.Cells = append(rowJSON.Cells, CellJSON{Key: leg.Key(), Text: cell.Text, Enabled: cell.Enabled})
		}
		out.Rows = append(out.Rows, rowJSON)
	}

	return out
}
