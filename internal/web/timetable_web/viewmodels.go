package timetable_web

type TimetablePageVM struct {
	Title      string
	RenderedAt string
	Boards     []BoardVM
}

type BoardVM struct {
	Name       string
	Summary    string
	Direction  string
	State      string
	Expanded   bool
	LoadedAt   string
	BoardURL   string
	ToggleURL  string
	Directions []DirectionOptionVM

	Notifications []NotificationVM
	Dialog        DialogVM

	Columns []ColumnVM
	Rows    []RowVM
}

type DirectionOptionVM struct {
	Value    string
	URL      string
	Selected bool
}

type NotificationVM struct {
	Kind    string
	Message string
}

type DialogVM struct {
	Open     bool
	RowID    int
	Text     string
	CloseURL string
}

type ColumnVM struct {
	Key           string
	Header        string
	SortURL       string
	SortIndicator string
}

type RowVM struct {
	ID         int
	Cells      []CellVM
	HasRemarks bool
	RemarksURL string
}

type CellVM struct {
	Text    string
	Enabled bool
}

// BoardJSON is the /api representation of a rendered board.
type BoardJSON struct {
	Name       string             `json:"name"`
	Summary    string             `json:"summary"`
	Direction  string             `json:"direction"`
	State      string             `json:"state"`
	LoadedAt   string             `json:"loaded_at,omitempty"`
	RenderedAt string             `json:"rendered_at"`
	Columns    []ColumnJSON       `json:"columns"`
	Rows       []RowJSON          `json:"rows"`
	Errors     []NotificationJSON `json:"errors,omitempty"`
}

type ColumnJSON struct {
	Key    string `json:"key"`
	Header string `json:"header"`
	Hidden bool   `json:"hidden,omitempty"`
}

type RowJSON struct {
	ID      int        `json:"id"`
	Cells   []CellJSON `json:"cells"`
	Remarks string     `json:"remarks,omitempty"`
}

type CellJSON struct {
	Key     string `json:"key"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

type NotificationJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
