package timetable_web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarediiran-industries.com/bus-timetable/internal/common"
	"tarediiran-industries.com/bus-timetable/internal/config"
	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

var jst = time.FixedZone("JST", 9*60*60)

var referenceResponse = schedule.Response{Values: []schedule.RawSlot{
	{Start: "2024-01-01T08:00:00", Via1: "", Via2: "2024-01-01T08:20:00", Goal: "2024-01-01T08:30:00", Remarks: ""},
}}

var outwardBoard = config.Board{
	Name:      "to-school",
	Title:     "駅から学校",
	Direction: "outward",
	Route:     timetable.StopRoute{Start: "千歳駅", Via1: "南千歳駅", Via2: "研究実験棟", Goal: "本部棟"},
}

type testServer struct {
	*testClient
	server  *TimetableWebServer
	fixture *schedule.FixtureSource
	metrics *common.Metrics
}

// testClient plays one browser: it keeps the session cookie between calls.
type testClient struct {
	handler http.Handler
	session string
}

func newTestServer(t *testing.T, responses map[schedule.Direction]schedule.Response, boards ...config.Board) testServer {
	t.Helper()
	if len(boards) == 0 {
		boards = []config.Board{outwardBoard}
	}

	fixture := schedule.NewFixtureSource(responses)
	metrics := common.NewMetrics(prometheus.NewRegistry())
	server, err := NewTimetableWebServer(fixture, ServerOptions{
		Boards:   boards,
		Location: jst,
		Clock:    timetable.FixedClock(time.Date(2024, 1, 1, 8, 25, 0, 0, jst)),
		Metrics:  metrics,
	})
	require.NoError(t, err)

	return testServer{
		testClient: &testClient{handler: server.Handler()},
		server:     server,
		fixture:    fixture,
		metrics:    metrics,
	}
}

func (ts testServer) newClient() *testClient {
	return &testClient{handler: ts.server.Handler()}
}

func (ts testServer) view(t *testing.T, client *testClient, name string) *timetable.View {
	t.Helper()
	view, ok := ts.server.View(client.session, name)
	require.True(t, ok, "no board %q for session %q", name, client.session)
	return view
}

func (client *testClient) do(t *testing.T, method, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		request.Header.Set(headers[i], headers[i+1])
	}
	if client.session != "" {
		request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: client.session})
	}

	recorder := httptest.NewRecorder()
	client.handler.ServeHTTP(recorder, request)

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			client.session = cookie.Value
		}
	}
	return recorder
}

func TestNewTimetableWebServer(t *testing.T) {
	_, err := NewTimetableWebServer(schedule.NewFixtureSource(nil), ServerOptions{})
	assert.Error(t, err)

	_, err = NewTimetableWebServer(schedule.NewFixtureSource(nil), ServerOptions{Boards: []config.Board{outwardBoard, outwardBoard}})
	assert.Error(t, err)
}

func TestTimetablePage(t *testing.T) {
	t.Run("renders the reference row", func(t *testing.T) {
		ts := newTestServer(t, map[schedule.Direction]schedule.Response{schedule.Outward: referenceResponse})

		recorder := ts.do(t, http.MethodGet, "/timetable")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))

		body := recorder.Body.String()
		assert.Contains(t, body, "千歳駅発")
		assert.Contains(t, body, "南千歳駅発")
		assert.Contains(t, body, "研究実験棟発")
		assert.Contains(t, body, "本部棟着")
		assert.Contains(t, body, "備考")
		assert.Contains(t, body, `<td class="disabled">08:00</td>`)
		assert.Contains(t, body, `<td class="enabled"></td>`)
		assert.Contains(t, body, `<td class="disabled">08:20</td>`)
		assert.Contains(t, body, `<td class="enabled">08:30</td>`)
		assert.NotContains(t, body, "remarks-trigger")
		assert.NotContains(t, body, "<dialog")
		assert.Contains(t, body, "<details open>")

		assert.Equal(t, 1, ts.fixture.Calls(schedule.Outward))
		assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.ViewRefreshTotal.WithLabelValues("to-school", "loaded")))
	})

	t.Run("mounts every board", func(t *testing.T) {
		ts := newTestServer(t, nil, config.DefaultBoards()...)

		recorder := ts.do(t, http.MethodGet, "/timetable")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 1, ts.fixture.Calls(schedule.Outward))
		assert.Equal(t, 1, ts.fixture.Calls(schedule.Homeward))
		assert.Contains(t, recorder.Body.String(), `id="board-to-school"`)
		assert.Contains(t, recorder.Body.String(), `id="board-to-station"`)
		assert.Contains(t, recorder.Body.String(), "便はありません")
	})

	t.Run("shows a banner when the fetch fails", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.fixture.Fail(schedule.Outward, errors.New("connection refused"))

		recorder := ts.do(t, http.MethodGet, "/timetable")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, `role="alert"`)
		assert.Contains(t, body, "通信に失敗しました。再読込して下さい。\nfetch outward schedule: connection refused")
		assert.Contains(t, body, "時刻表を取得できていません")
	})

	t.Run("keeps the previous rows when a refetch fails", func(t *testing.T) {
		ts := newTestServer(t, map[schedule.Direction]schedule.Response{schedule.Outward: referenceResponse})
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/timetable").Code)

		ts.fixture.Fail(schedule.Outward, errors.New("timeout"))
		recorder := ts.do(t, http.MethodGet, "/timetable/boards/to-school")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, `<td class="enabled">08:30</td>`)
		assert.Contains(t, body, "通信に失敗しました。")
	})

	t.Run("records the position", func(t *testing.T) {
		ts := newTestServer(t, nil)

		require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/timetable?lat=42.79&lon=141.65").Code)

		view := ts.view(t, ts.testClient, "to-school")
		assert.Equal(t, &timetable.Position{Latitude: 42.79, Longitude: 141.65}, view.Position())
	})

	t.Run("reports a geolocation failure", func(t *testing.T) {
		ts := newTestServer(t, nil)

		recorder := ts.do(t, http.MethodGet, "/timetable?geo_error=1")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "位置情報の取得に失敗しました。")
	})

	t.Run("a failed fetch and a failed lookup both show", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.fixture.Fail(schedule.Outward, errors.New("connection refused"))

		body := ts.do(t, http.MethodGet, "/timetable?geo_error=1").Body.String()

		assert.Equal(t, 2, strings.Count(body, `role="alert"`))
		assert.Contains(t, body, "通信に失敗しました。")
		assert.Contains(t, body, "位置情報の取得に失敗しました。")
		assert.Less(t, strings.Index(body, `data-kind="transport"`), strings.Index(body, `data-kind="location"`))
	})

	t.Run("rejects a malformed position", func(t *testing.T) {
		ts := newTestServer(t, nil)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/timetable?lat=north&lon=1").Code)
		assert.Equal(t, 0, ts.fixture.Calls(schedule.Outward))
	})

	t.Run("root redirects", func(t *testing.T) {
		ts := newTestServer(t, nil)
		recorder := ts.do(t, http.MethodGet, "/")
		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, "/timetable", recorder.Header().Get("Location"))
	})
}

func TestRemarksDialog(t *testing.T) {
	remarks := "始発便\n研究実験棟は通過します"
	ts := newTestServer(t, map[schedule.Direction]schedule.Response{
		schedule.Outward: {Values: []schedule.RawSlot{
			{Start: "2024-01-01T07:00:00"},
			{Start: "2024-01-01T07:30:00", Remarks: remarks},
		}},
	})

	page := ts.do(t, http.MethodGet, "/timetable").Body.String()
	assert.Equal(t, 1, strings.Count(page, "remarks-trigger"))
	assert.Contains(t, page, `href="/timetable/boards/to-school/remarks/1"`)

	t.Run("opens without refetching", func(t *testing.T) {
		recorder := ts.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/1")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.Contains(t, body, "<dialog open")
		assert.Contains(t, body, remarks)
		assert.Equal(t, 1, ts.fixture.Calls(schedule.Outward))
	})

	t.Run("closes", func(t *testing.T) {
		recorder := ts.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/close")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.NotContains(t, recorder.Body.String(), "<dialog")
	})

	t.Run("rows without remarks have no dialog", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/0").Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/first").Code)
	})

	t.Run("a fresh page load closes the dialog", func(t *testing.T) {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/1").Code)

		body := ts.do(t, http.MethodGet, "/timetable").Body.String()

		assert.NotContains(t, body, "<dialog")
	})
}

func TestBoardPartial(t *testing.T) {
	responses := map[schedule.Direction]schedule.Response{
		schedule.Outward: referenceResponse,
		schedule.Homeward: {Values: []schedule.RawSlot{
			{Start: "2024-01-01T18:00:00"},
			{Start: "2024-01-01T17:00:00"},
		}},
	}

	t.Run("htmx requests get only the board", func(t *testing.T) {
		ts := newTestServer(t, responses)

		recorder := ts.do(t, http.MethodGet, "/timetable/boards/to-school", "HX-Request", "true")

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		assert.True(t, strings.HasPrefix(body, `<section class="board"`))
		assert.NotContains(t, body, "<html")
		assert.Equal(t, 1, ts.fixture.Calls(schedule.Outward))
	})

	t.Run("changing direction refetches that direction", func(t *testing.T) {
		ts := newTestServer(t, responses)

		recorder := ts.do(t, http.MethodGet, "/timetable/boards/to-school?direction=homeward")

		require.Equal(t, http.StatusOK, recorder.Code)
		view := ts.view(t, ts.testClient, "to-school")
		assert.Equal(t, schedule.Homeward, view.Direction())
		assert.Len(t, view.Rows(), 2)
		assert.Equal(t, 0, ts.fixture.Calls(schedule.Outward))
		assert.Equal(t, 1, ts.fixture.Calls(schedule.Homeward))
	})

	t.Run("sorts by a leg", func(t *testing.T) {
		ts := newTestServer(t, responses)
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/timetable/boards/to-school?direction=homeward").Code)

		body := ts.do(t, http.MethodGet, "/timetable/boards/to-school?sort=start&order=asc").Body.String()

		assert.Less(t, strings.Index(body, ">17:00<"), strings.Index(body, ">18:00<"))
		assert.Contains(t, body, "千歳駅発 ▲")
	})

	t.Run("bad input", func(t *testing.T) {
		ts := newTestServer(t, responses)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/timetable/boards/to-school?direction=up").Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/timetable/boards/to-school?sort=middle").Code)
		assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/timetable/boards/nowhere").Code)
	})

	t.Run("toggle collapses and expands", func(t *testing.T) {
		ts := newTestServer(t, responses)

		recorder := ts.do(t, http.MethodPost, "/timetable/boards/to-school/toggle")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "<details>")

		view := ts.view(t, ts.testClient, "to-school")
		assert.False(t, view.Expanded())

		ts.do(t, http.MethodPost, "/timetable/boards/to-school/toggle")
		assert.True(t, view.Expanded())

		assert.Equal(t, http.StatusMethodNotAllowed, ts.do(t, http.MethodGet, "/timetable/boards/to-school/toggle").Code)
	})
}

func TestBoardJSON(t *testing.T) {
	ts := newTestServer(t, map[schedule.Direction]schedule.Response{schedule.Outward: referenceResponse})

	recorder := ts.do(t, http.MethodGet, "/api/boards/to-school")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var board BoardJSON
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &board))

	assert.Equal(t, "loaded", board.State)
	assert.Equal(t, "outward", board.Direction)
	require.Len(t, board.Columns, 6)
	assert.True(t, board.Columns[0].Hidden)
	assert.Equal(t, "本部棟着", board.Columns[4].Header)

	require.Len(t, board.Rows, 1)
	assert.Equal(t, []CellJSON{
		{Key: "start", Text: "08:00", Enabled: false},
		{Key: "via1", Text: "", Enabled: true},
		{Key: "via2", Text: "08:20", Enabled: false},
		{Key: "goal", Text: "08:30", Enabled: true},
	}, board.Rows[0].Cells)
	assert.Empty(t, board.Errors)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/boards/nowhere").Code)
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	health := ts.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "ok", health.Body.String())

	debug := ts.do(t, http.MethodGet, "/debug/boards")
	assert.Equal(t, http.StatusOK, debug.Code)
	assert.Contains(t, debug.Body.String(), "Timetable boards")
	assert.Contains(t, debug.Body.String(), "to-school")
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t, map[schedule.Direction]schedule.Response{
		schedule.Outward:  {Values: []schedule.RawSlot{{Start: "2024-01-01T09:00:00", Remarks: "集合場所注意"}}},
		schedule.Homeward: {Values: []schedule.RawSlot{{Start: "2024-01-01T17:00:00"}, {Start: "2024-01-01T18:00:00"}}},
	})
	alice, bob := ts.testClient, ts.newClient()

	require.Equal(t, http.StatusOK, alice.do(t, http.MethodGet, "/timetable").Code)
	require.Equal(t, http.StatusOK, bob.do(t, http.MethodGet, "/timetable").Code)
	require.NotEmpty(t, alice.session)
	require.NotEmpty(t, bob.session)
	assert.NotEqual(t, alice.session, bob.session)
	assert.Equal(t, 2, ts.server.Sessions())
	assert.Equal(t, 2.0, testutil.ToFloat64(ts.metrics.ActiveSessions))

	require.Equal(t, http.StatusOK, alice.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/0").Code)
	require.Equal(t, http.StatusOK, alice.do(t, http.MethodPost, "/timetable/boards/to-school/toggle").Code)

	t.Run("another client's changes stay with that client", func(t *testing.T) {
		require.Equal(t, http.StatusOK, bob.do(t, http.MethodGet, "/timetable/boards/to-school?direction=homeward&sort=start&order=desc").Code)

		aliceView := ts.view(t, alice, "to-school")
		assert.Equal(t, schedule.Outward, aliceView.Direction())
		assert.Equal(t, timetable.Sort{}, aliceView.Sort())
		assert.False(t, aliceView.Expanded())
		assert.True(t, aliceView.Dialog().Open)

		bobView := ts.view(t, bob, "to-school")
		assert.Equal(t, schedule.Homeward, bobView.Direction())
		assert.True(t, bobView.Expanded())
		assert.False(t, bobView.Dialog().Open)
	})

	t.Run("another client's page load does not close the dialog", func(t *testing.T) {
		body := bob.do(t, http.MethodGet, "/timetable").Body.String()
		assert.NotContains(t, body, "<dialog")

		assert.True(t, ts.view(t, alice, "to-school").Dialog().Open)
		body = alice.do(t, http.MethodGet, "/timetable/boards/to-school/remarks/0").Body.String()
		assert.Contains(t, body, "集合場所注意")
	})

	t.Run("an unknown cookie starts a new session", func(t *testing.T) {
		stranger := &testClient{handler: ts.server.Handler(), session: "forged"}
		require.Equal(t, http.StatusOK, stranger.do(t, http.MethodGet, "/timetable").Code)
		assert.NotEqual(t, "forged", stranger.session)
		assert.Equal(t, 3, ts.server.Sessions())
	})
}
