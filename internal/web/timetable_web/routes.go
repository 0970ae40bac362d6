package timetable_web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

func (server *TimetableWebServer) board(writer http.ResponseWriter, request *http.Request) (*timetable.View, bool) {
	view, ok := sessionFrom(request.Context()).view(chi.URLParam(request, "board"))
	if !ok {
		http.Error(writer, "unknown board", http.StatusNotFound)
	}
	return view, ok
}

func (server *TimetableWebServer) renderPage(writer http.ResponseWriter, request *http.Request) {
	views := sessionFrom(request.Context()).all()
	renderings := make([]timetable.Rendering, 0, len(views))
	for _, view := range views {
		renderings = append(renderings, view.Render())
	}

	viewmodel := BuildTimetablePageVM(renderings, server.clock.Now(), server.location)
	if err := server.renderer.WriteHTML(writer, http.StatusOK, "layout.html", viewmodel); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}

// respond sends just the board to htmx requests and the whole page to
// everything else. Neither triggers a fetch.
func (server *TimetableWebServer) respond(writer http.ResponseWriter, request *http.Request, view *timetable.View) {
	if request.Header.Get("HX-Request") == "" {
		server.renderPage(writer, request)
		return
	}

	viewmodel := BuildBoardVM(view.Render(), server.location)
	if err := server.renderer.WriteHTML(writer, http.StatusOK, "board.html", viewmodel); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}

// refreshErr logs what the view has not already surfaced as a notification.
func refreshErr(view *timetable.View, err error) {
	if err != nil && !errors.Is(err, timetable.ErrSuperseded) {
		log.Debug().Err(err).Str("board", view.Name()).Msg("board refresh failed")
	}
}

// handleTimetablePage mounts every board of the caller's session: dialogs
// close and each schedule is fetched again, concurrently. Location results
// are applied after the fetches so neither notice hides the other.
func (server *TimetableWebServer) handleTimetablePage(writer http.ResponseWriter, request *http.Request) {
	query, err := ParseTimetableQuery(request.URL.Query())
	if err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := request.Context()
	views := sessionFrom(ctx).all()

	p := pool.New()
	for _, view := range views {
		view := view
		p.Go(func() {
			refreshErr(view, view.Mount(ctx))
		})
	}
	p.Wait()

	for _, view := range views {
		if query.Position != nil {
			view.SetPosition(query.Position)
		}
		if query.LocationError != nil {
			view.ReportLocationError(query.LocationError)
		}
	}

	server.renderPage(writer, request)
}

func (server *TimetableWebServer) handleBoard(writer http.ResponseWriter, request *http.Request) {
	view, ok := server.board(writer, request)
	if !ok {
		return
	}

	query, err := ParseBoardQuery(request.URL.Query())
	if err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	if query.Sort != nil {
		view.SetSort(*query.Sort)
	}

	if query.Direction != nil && *query.Direction != view.Direction() {
		refreshErr(view, view.SetDirection(request.Context(), *query.Direction))
	} else {
		refreshErr(view, view.Refresh(request.Context()))
	}

	server.respond(writer, request, view)
}

func (server *TimetableWebServer) handleOpenRemarks(writer http.ResponseWriter, request *http.Request) {
	view, ok := server.board(writer, request)
	if !ok {
		return
	}

	rowID, err := strconv.Atoi(chi.URLParam(request, "row"))
	if err != nil {
		http.Error(writer, "invalid row", http.StatusBadRequest)
		return
	}

	if err := view.OpenRemarks(rowID); err != nil {
		http.Error(writer, err.Error(), http.StatusNotFound)
		return
	}

	server.respond(writer, request, view)
}

func (server *TimetableWebServer) handleCloseRemarks(writer http.ResponseWriter, request *http.Request) {
	view, ok := server.board(writer, request)
	if !ok {
		return
	}

	view.CloseRemarks()
	server.respond(writer, request, view)
}

func (server *TimetableWebServer) handleToggle(writer http.ResponseWriter, request *http.Request) {
	view, ok := server.board(writer, request)
	if !ok {
		return
	}

	view.ToggleExpanded()
	server.respond(writer, request, view)
}

func (server *TimetableWebServer) handleBoardJSON(writer http.ResponseWriter, request *http.Request) {
	view, ok := server.board(writer, request)
	if !ok {
		return
	}

	refreshErr(view, view.Refresh(request.Context()))

	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(BuildBoardJSON(view.Render(), server.location)); err != nil {
		log.Error().Err(err).Msg("failed to encode board")
	}
}

type debugData struct {
	Title string
	Pre   string
}

func (server *TimetableWebServer) handleDebugBoards(writer http.ResponseWriter, request *http.Request) {
	session := sessionFrom(request.Context())
	renderings := make(map[string]timetable.Rendering, len(session.views))
	for name, view := range session.views {
		renderings[name] = view.Render()
	}

	title := fmt.Sprintf("Timetable boards (%d sessions)", server.sessions.len())
	data := debugData{Title: title, Pre: spew.Sdump(renderings)}
	if err := server.renderer.WriteHTML(writer, http.StatusOK, "debug.html", data); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}
