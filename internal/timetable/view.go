package timetable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tarediiran-industries.com/bus-timetable/internal/schedule"
)

type State int

const (
	StateEmpty State = iota
	StateLoaded
)

func (state State) String() string {
	if state == StateLoaded {
		return "loaded"
	}
	return "empty"
}

// Outcome of a single Refresh, reported through Options.OnRefresh.
type Outcome string

const (
	OutcomeLoaded Outcome = "loaded"
	OutcomeFailed Outcome = "failed"
	OutcomeStale  Outcome = "stale"
)

// ErrSuperseded is returned by a refresh whose result arrived after a newer
// refresh had started. Its result was dropped.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

var ErrNoRemarks = errors.New("row has no remarks")

type Options struct {
	Name      string
	Summary   string
	Direction schedule.Direction
	Route     StopRoute

	// Nil means expanded.
	DefaultExpanded *bool

	Position *Position

	// Defaults to time.Local.
	Location *time.Location

	// Defaults to SystemClock.
	Clock Clock

	Notifier  Notifier
	OnRefresh func(outcome Outcome)
}

// RemarksDialog is the modal state. Text is only set while Open.
type RemarksDialog struct {
	Open  bool
	RowID int
	Text  string
}

// View owns one table: its fetch lifecycle, its rows and its transient UI
// state. It is safe for concurrent use; only the most recently started
// refresh may change the rows.
type View struct {
	source    schedule.Source
	name      string
	summary   string
	route     StopRoute
	location  *time.Location
	clock     Clock
	notifier  Notifier
	onRefresh func(Outcome)

	mu           sync.Mutex
	direction    schedule.Direction
	generation   uint64
	state        State
	rows         []DisplayRow
	loadedAt     time.Time
	expanded     bool
	dialog       RemarksDialog
	position     *Position
	sort         Sort
	notices      map[NotificationKind]Notification
}

func NewView(source schedule.Source, opts Options) (*View, error) {
	if source == nil {
		return nil, errors.New("view needs a schedule source")
	}
	if !opts.Direction.Valid() {
		return nil, fmt.Errorf("view %q: unknown direction %q", opts.Name, opts.Direction)
	}

	view := &View{
		source:    source,
		name:      opts.Name,
		summary:   opts.Summary,
		route:     opts.Route,
		location:  opts.Location,
		clock:     opts.Clock,
		notifier:  opts.Notifier,
		onRefresh: opts.OnRefresh,
		direction: opts.Direction,
		state:     StateEmpty,
		rows:      []DisplayRow{},
		expanded:  opts.DefaultExpanded == nil || *opts.DefaultExpanded,
		position:  opts.Position,
		notices:   make(map[NotificationKind]Notification),
	}

	if view.location == nil {
		view.location = time.Local
	}
	if view.clock == nil {
		view.clock = SystemClock
	}

	return view, nil
}

func (view *View) Name() string {
	return view.name
}

func (view *View) Summary() string {
	return view.summary
}

func (view *View) Route() StopRoute {
	return view.route
}

func (view *View) Location() *time.Location {
	return view.location
}

// Mount is what happens when the table is shown afresh: the remarks
// dialog closes and the schedule is fetched again.
func (view *View) Mount(ctx context.Context) error {
	view.mu.Lock()
	view.dialog = RemarksDialog{}
	view.mu.Unlock()

	return view.Refresh(ctx)
}

// SetDirection changes the direction input. A new value triggers a
// refetch that replaces the rows wholesale; the same value does nothing.
func (view *View) SetDirection(ctx context.Context, direction schedule.Direction) error {
	if !direction.Valid() {
		return fmt.Errorf("view %q: unknown direction %q", view.name, direction)
	}

	view.mu.Lock()
	if view.direction == direction {
		view.mu.Unlock()
		return nil
	}
	view.direction = direction
	view.mu.Unlock()

	return view.Refresh(ctx)
}

// Refresh fetches the current direction and applies the result, unless a
// newer refresh started in the meantime. On failure the rows are left as
// they were and the notifier is told.
func (view *View) Refresh(ctx context.Context) error {
	view.mu.Lock()
	view.generation++
	generation := view.generation
	direction := view.direction
	view.mu.Unlock()

	response, err := view.source.FetchSchedule(ctx, direction)

	var rows []DisplayRow
	if err == nil {
		rows, err = ToDisplayRows(response, view.location)
	}

	view.mu.Lock()
	if generation != view.generation {
		view.mu.Unlock()
		log.Debug().Str("board", view.name).Str("direction", direction.String()).Msg("dropped superseded schedule")
		view.report(OutcomeStale)
		return ErrSuperseded
	}

	if err != nil {
		notification := transportNotification(err, view.clock.Now())
		view.notices[NotifyTransport] = notification
		view.mu.Unlock()

		log.Error().Err(err).Str("board", view.name).Str("direction", direction.String()).Msg("failed to refresh schedule")
		view.report(OutcomeFailed)
		if view.notifier != nil {
			view.notifier.Notify(notification)
		}
		return err
	}

	view.rows = rows
	view.state = StateLoaded
	view.loadedAt = view.clock.Now()
	delete(view.notices, NotifyTransport)
	// Row ids now point into a different slice.
	view.dialog = RemarksDialog{}
	view.mu.Unlock()

	view.report(OutcomeLoaded)
	return nil
}

func (view *View) report(outcome Outcome) {
	if view.onRefresh != nil {
		view.onRefresh(outcome)
	}
}

func (view *View) Direction() schedule.Direction {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.direction
}

func (view *View) State() State {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.state
}

// Rows returns a copy of the rows in fetch order.
func (view *View) Rows() []DisplayRow {
	view.mu.Lock()
	defer view.mu.Unlock()
	rows := make([]DisplayRow, len(view.rows))
	copy(rows, view.rows)
	return rows
}

func (view *View) Expanded() bool {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.expanded
}

func (view *View) SetExpanded(expanded bool) {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.expanded = expanded
}

// ToggleExpanded flips the accordion and returns the new state.
func (view *View) ToggleExpanded() bool {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.expanded = !view.expanded
	return view.expanded
}

// OpenRemarks opens the dialog for the row with rowID. Rows without
// remarks have no trigger, so opening one is an error.
func (view *View) OpenRemarks(rowID int) error {
	view.mu.Lock()
	defer view.mu.Unlock()

	if !view.hasRemarksLocked(rowID) {
		return fmt.Errorf("row %d: %w", rowID, ErrNoRemarks)
	}
	view.dialog = RemarksDialog{Open: true, RowID: rowID, Text: view.rows[rowID].Remarks}
	return nil
}

func (view *View) CloseRemarks() {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.dialog = RemarksDialog{}
}

func (view *View) Dialog() RemarksDialog {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.dialog
}

// Row ids are positions, so the id indexes the fetch-ordered slice.
func (view *View) hasRemarksLocked(rowID int) bool {
	return rowID >= 0 && rowID < len(view.rows) && view.rows[rowID].HasRemarks()
}

func (view *View) SetSort(sort Sort) {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.sort = sort
}

func (view *View) Sort() Sort {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.sort
}

// SetPosition records a successful lookup, which also retires an earlier
// location failure.
func (view *View) SetPosition(position *Position) {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.position = position
	if position != nil {
		delete(view.notices, NotifyLocation)
	}
}

func (view *View) Position() *Position {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.position
}

// ReportLocationError surfaces a failed geolocation lookup next to any
// fetch failure. Rows are untouched.
func (view *View) ReportLocationError(err *LocationError) {
	notification := locationNotification(err, view.clock.Now())

	view.mu.Lock()
	view.notices[NotifyLocation] = notification
	view.mu.Unlock()

	log.Warn().Int("code", err.Code).Str("board", view.name).Msg("geolocation failed")
	if view.notifier != nil {
		view.notifier.Notify(notification)
	}
}

// Notifications are the failures still standing, fetch first. A fetch
// failure lasts until the next applied refresh, a location failure until
// a position is set.
func (view *View) Notifications() []Notification {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.noticesLocked()
}

func (view *View) noticesLocked() []Notification {
	var notifications []Notification
	for _, kind := range []NotificationKind{NotifyTransport, NotifyLocation} {
		if notification, ok := view.notices[kind]; ok {
			notifications = append(notifications, notification)
		}
	}
	return notifications
}

// Rendering is a consistent copy of a view taken at one instant.
type Rendering struct {
	Name          string
	Summary       string
	Direction     schedule.Direction
	Route         StopRoute
	State         State
	LoadedAt      time.Time
	RenderedAt    time.Time
	Expanded      bool
	Dialog        RemarksDialog
	Sort          Sort
	Position      *Position
	Notifications []Notification
	Grid          Grid
}

// Render formats the rows against the clock's current time. Past
// departures are only re-evaluated by calling Render again.
func (view *View) Render() Rendering {
	now := view.clock.Now()

	view.mu.Lock()
	rendering := Rendering{
		Name:       view.name,
		Summary:    view.summary,
		Direction:  view.direction,
		Route:      view.route,
		State:      view.state,
		LoadedAt:   view.loadedAt,
		RenderedAt: now,
		Expanded:   view.expanded,
		Dialog:     view.dialog,
		Sort:       view.sort,
		Position:   view.position,

		Notifications: view.noticesLocked(),
	}
	rows := SortRows(view.rows, view.sort)
	view.mu.Unlock()

	rendering.Grid = RenderGrid(rendering.Route, rows, now, view.location)
	return rendering
}
