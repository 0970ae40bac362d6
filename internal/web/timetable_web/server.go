package timetable_web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"

	"tarediiran-industries.com/bus-timetable/internal/common"
	"tarediiran-industries.com/bus-timetable/internal/config"
	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

type ServerOptions struct {
	ListenAddress string
	Boards        []config.Board
	Location      *time.Location

	// Defaults to timetable.SystemClock.
	Clock   timetable.Clock
	Metrics *common.Metrics

	// Idle time after which a browser's boards are dropped and remounted
	// on its next visit. Defaults to DefaultSessionTTL.
	SessionTTL  time.Duration
	MaxSessions int
}

// TimetableWebServer serves the configured boards. Every browser gets its
// own views of them, keyed by a session cookie.
type TimetableWebServer struct {
	server   *http.Server
	renderer *Renderer
	location *time.Location
	clock    timetable.Clock
	source   schedule.Source

	boards   []timetable.Options
	sessions *sessionStore
}

func compression(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func NewTimetableWebServer(source schedule.Source, opts ServerOptions) (*TimetableWebServer, error) {
	if len(opts.Boards) == 0 {
		return nil, errors.New("no boards configured")
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	server := &TimetableWebServer{
		renderer: renderer,
		location: opts.Location,
		clock:    opts.Clock,
		source:   source,
	}
	if server.location == nil {
		server.location = time.Local
	}
	if server.clock == nil {
		server.clock = timetable.SystemClock
	}

	seen := make(map[string]bool, len(opts.Boards))
	for _, board := range opts.Boards {
		if seen[board.Name] {
			return nil, fmt.Errorf("duplicate board %q", board.Name)
		}
		seen[board.Name] = true

		viewOptions := board.ViewOptions(server.location)
		viewOptions.Clock = server.clock

		name, metrics := board.Name, opts.Metrics
		viewOptions.OnRefresh = func(outcome timetable.Outcome) {
			metrics.Refreshed(name, string(outcome))
		}

		server.boards = append(server.boards, viewOptions)
	}

	// Fail on bad board settings now rather than on the first visit.
	if _, _, err := server.newViews(); err != nil {
		return nil, err
	}

	server.sessions = newSessionStore(opts.SessionTTL, opts.MaxSessions, server.clock.Now, server.newViews)
	server.sessions.onResize = opts.Metrics.SessionsActive

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(AccessLogger)
	router.Use(middleware.Recoverer)
	router.Use(compression)

	router.Get("/", func(writer http.ResponseWriter, request *http.Request) {
		http.Redirect(writer, request, "/timetable", http.StatusFound)
	})
	router.Get("/healthz", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = writer.Write([]byte("ok"))
	})

	router.Group(func(r chi.Router) {
		r.Use(server.withSession)

		r.Get("/timetable", server.handleTimetablePage)
		r.Route("/timetable/boards/{board}", func(r chi.Router) {
			r.Get("/", server.handleBoard)
			r.Get("/remarks/close", server.handleCloseRemarks)
			r.Get("/remarks/{row}", server.handleOpenRemarks)
			r.Post("/toggle", server.handleToggle)
		})
		r.Get("/api/boards/{board}", server.handleBoardJSON)
		r.Get("/debug/boards", server.handleDebugBoards)
	})

	server.server = &http.Server{
		Addr:              opts.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, nil
}

func (server *TimetableWebServer) Handler() http.Handler {
	return server.server.Handler
}

// View returns a board as the session with sessionID sees it.
func (server *TimetableWebServer) View(sessionID, name string) (*timetable.View, bool) {
	session, ok := server.sessions.lookup(sessionID)
	if !ok {
		return nil, false
	}
	return session.view(name)
}

// Sessions is the number of browsers with live boards.
func (server *TimetableWebServer) Sessions() int {
	return server.sessions.len()
}

func (server *TimetableWebServer) newViews() (map[string]*timetable.View, []string, error) {
	views := make(map[string]*timetable.View, len(server.boards))
	order := make([]string, 0, len(server.boards))
	for _, options := range server.boards {
		view, err := timetable.NewView(server.source, options)
		if err != nil {
			return nil, nil, err
		}
		views[options.Name] = view
		order = append(order, options.Name)
	}
	return views, order, nil
}

// Serve blocks until ctx is cancelled or the listener fails.
func (server *TimetableWebServer) Serve(ctx context.Context) error {
	log.Info().Str("addr", server.server.Addr).Msg("listening")

	failed := make(chan error, 1)
	go func() {
		if err := server.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.server.Shutdown(shutdownCtx)
}
