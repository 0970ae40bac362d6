package timetable_web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

const (
	sessionCookieName = "timetable_session"

	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 10000
)

// clientSession is one browser's set of mounted boards. Direction, sort,
// dialog and accordion state live in these views, so two clients never
// see each other's changes.
type clientSession struct {
	id       string
	views    map[string]*timetable.View
	order    []string
	lastSeen time.Time
}

func (session *clientSession) view(name string) (*timetable.View, bool) {
	view, ok := session.views[name]
	return view, ok
}

func (session *clientSession) all() []*timetable.View {
	views := make([]*timetable.View, 0, len(session.order))
	for _, name := range session.order {
		views = append(views, session.views[name])
	}
	return views
}

type sessionStore struct {
	ttl      time.Duration
	limit    int
	now      func() time.Time
	build    func() (map[string]*timetable.View, []string, error)
	onResize func(active int)
	newID    func() string

	mu       sync.Mutex
	sessions map[string]*clientSession
}

func newSessionStore(ttl time.Duration, limit int, now func() time.Time, build func() (map[string]*timetable.View, []string, error)) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &sessionStore{
		ttl:      ttl,
		limit:    limit,
		now:      now,
		build:    build,
		newID:    uuid.NewString,
		sessions: make(map[string]*clientSession),
	}
}

// lookup returns a live session and marks it as seen.
func (store *sessionStore) lookup(id string) (*clientSession, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[id]
	if !ok {
		return nil, false
	}

	now := store.now()
	if now.Sub(session.lastSeen) > store.ttl {
		delete(store.sessions, id)
		store.resized()
		return nil, false
	}
	session.lastSeen = now
	return session, true
}

// create starts a session with freshly built, unmounted views. Expired
// sessions are swept first and, when still full, the least recently seen
// one makes room.
func (store *sessionStore) create() (*clientSession, error) {
	views, order, err := store.build()
	if err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	store.sweepLocked(now)
	if len(store.sessions) >= store.limit {
		store.evictOldestLocked()
	}

	session := &clientSession{id: store.newID(), views: views, order: order, lastSeen: now}
	store.sessions[session.id] = session
	store.resized()
	return session, nil
}

func (store *sessionStore) sweepLocked(now time.Time) {
	for id, session := range store.sessions {
		if now.Sub(session.lastSeen) > store.ttl {
			delete(store.sessions, id)
		}
	}
}

func (store *sessionStore) evictOldestLocked() {
	var oldest *clientSession
	for _, session := range store.sessions {
		if oldest == nil || session.lastSeen.Before(oldest.lastSeen) {
			oldest = session
		}
	}
	if oldest != nil {
		log.Debug().Str("session", oldest.id).Msg("evicted idle session")
		delete(store.sessions, oldest.id)
	}
}

func (store *sessionStore) resized() {
	if store.onResize != nil {
		store.onResize(len(store.sessions))
	}
}

func (store *sessionStore) len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.sessions)
}

type sessionContextKey struct{}

func sessionFrom(ctx context.Context) *clientSession {
	session, _ := ctx.Value(sessionContextKey{}).(*clientSession)
	return session
}

// withSession attaches the caller's session to the request, starting one
// and setting the cookie when the caller has none or it has expired.
func (server *TimetableWebServer) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var session *clientSession
		if cookie, err := request.Cookie(sessionCookieName); err == nil {
			session, _ = server.sessions.lookup(cookie.Value)
		}

		if session == nil {
			created, err := server.sessions.create()
			if err != nil {
				http.Error(writer, err.Error(), http.StatusInternalServerError)
				return
			}
			session = created

			http.SetCookie(writer, &http.Cookie{
				Name:     sessionCookieName,
				Value:    session.id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(writer, request.WithContext(context.WithValue(request.Context(), sessionContextKey{}, session)))
	})
}
