package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memgame/internal/game"
	"memgame/pkg/realtime/realtimetest"
)

type itemsSource []game.Item

func (s itemsSource) FetchItems(_ context.Context, count int) []game.Item {
	if count > len(s) {
		count = len(s)
	}
	return append([]game.Item(nil), s[:count]...)
}

func testItems(n int) itemsSource {
	items := make(itemsSource, n)
	for i := range items {
		name := "mon-" + strconv.Itoa(i)
		items[i] = game.Item{Name: name, Image: "https://img.test/" + name + ".png"}
	}
	return items
}

type testEnv struct {
	router http.Handler
	store  *game.Store
	clock  *realtimetest.ManualScheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := realtimetest.NewManualScheduler()
	store := game.NewStore(game.DefaultSettings(), testItems(8), game.WithScheduler(clock))
	starter := NewStarter(context.Background(), time.Minute)
	starter.run = func(f func()) { f() }

	r := chi.NewRouter()
	NewHomeHandler(store, starter).RegisterRoutes(r)
	NewGameHandler(store, starter).RegisterRoutes(r)
	return &testEnv{router: r, store: store, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("Hx-Request", "true")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) newGame(t *testing.T, difficulty string) *game.Session {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/games", url.Values{"difficulty": {difficulty}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/game/"), loc)
	sess, ok := e.store.GetSession(strings.TrimPrefix(loc, "/game/"))
	require.True(t, ok)
	return sess
}

func TestHomePage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/games"`)
	assert.Contains(t, body, `value="medium"`)
	assert.Contains(t, body, "Easy (3 pairs, 20s)")
	assert.NotContains(t, body, "dark-theme")
}

func TestCreateGame_StartsSession(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "medium")

	snap := sess.Snapshot()
	assert.True(t, snap.Active)
	assert.Equal(t, game.DifficultyMedium, snap.Difficulty)
	assert.Equal(t, 5, snap.TotalPairs)
	assert.Len(t, snap.Cards, 10)
}

func TestCreateGame_UnknownDifficultyFallsBackToEasy(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "nightmare")
	assert.Equal(t, game.DifficultyEasy, sess.Difficulty())
	assert.Equal(t, 3, sess.Snapshot().TotalPairs)
}

func TestGamePage(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")

	rec := env.do(t, http.MethodGet, "/game/"+sess.ID, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-stream="/game/`+sess.ID+`/stream"`)
	assert.Contains(t, body, `id="game-grid"`)
	assert.Equal(t, 6, strings.Count(body, `class="back_face"`))
	assert.NotContains(t, body, "mon-0")

	rec = env.do(t, http.MethodGet, "/game/missing", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFragments(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")

	rec := env.do(t, http.MethodGet, "/game/"+sess.ID+"/status", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<dd id="timer">20</dd>`)

	rec = env.do(t, http.MethodGet, "/game/"+sess.ID+"/board", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--columns: 3")
}

func TestFlip_HtmxAndRedirect(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")

	rec := env.do(t, http.MethodPost, "/game/"+sess.ID+"/cards/0/flip", url.Values{}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, sess.Snapshot().Clicks)
	assert.True(t, sess.Snapshot().Cards[0].FaceUp)

	rec = env.do(t, http.MethodPost, "/game/"+sess.ID+"/cards/0/flip", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/game/"+sess.ID, rec.Header().Get("Location"))
	assert.Equal(t, 1, sess.Snapshot().Clicks, "reselecting a flipped card is ignored")

	rec = env.do(t, http.MethodPost, "/game/"+sess.ID+"/cards/abc/flip", url.Values{}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, sess.Snapshot().Clicks)

	rec = env.do(t, http.MethodPost, "/game/"+sess.ID+"/cards/99/flip", url.Values{}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, sess.Snapshot().Clicks)
}

func TestState_HidesFaceDownCards(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")
	env.do(t, http.MethodPost, "/game/"+sess.ID+"/cards/2/flip", url.Values{}, true)

	rec := env.do(t, http.MethodGet, "/game/"+sess.ID+"/state", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got sessionState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "easy", got.Difficulty)
	assert.Equal(t, 1, got.Clicks)
	assert.Equal(t, 3, got.Remaining)
	assert.True(t, got.Active)
	require.Len(t, got.Cards, 6)
	for _, c := range got.Cards {
		if c.Position == 2 {
			assert.True(t, c.FaceUp)
			assert.NotEmpty(t, c.Name)
			continue
		}
		assert.False(t, c.FaceUp)
		assert.Empty(t, c.Name)
		assert.Empty(t, c.Image)
	}
}

func TestChangeDifficulty(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")

	rec := env.do(t, http.MethodPost, "/game/"+sess.ID+"/difficulty", url.Values{"difficulty": {"hard"}}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	snap := sess.Snapshot()
	assert.Equal(t, game.DifficultyHard, snap.Difficulty)
	assert.Equal(t, 8, snap.TotalPairs)
	assert.Equal(t, 120, snap.TimeLeft)

	rec = env.do(t, http.MethodPost, "/game/"+sess.ID+"/difficulty", url.Values{"difficulty": {"bogus"}}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, game.DifficultyHard, sess.Difficulty())
}

func TestStartAndReset_DealFreshBoard(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")
	env.do(t, http.MethodPost, "/game/"+sess.ID+"/cards/0/flip", url.Values{}, true)
	env.clock.Advance(5 * time.Second)
	require.Equal(t, 15, sess.Snapshot().TimeLeft)

	rec := env.do(t, http.MethodPost, "/game/"+sess.ID+"/reset", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	snap := sess.Snapshot()
	assert.Equal(t, 0, snap.Clicks)
	assert.Equal(t, 20, snap.TimeLeft)
	assert.True(t, snap.Active)

	rec = env.do(t, http.MethodPost, "/game/"+sess.ID+"/start", url.Values{"difficulty": {"medium"}}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, game.DifficultyMedium, sess.Difficulty())

	rec = env.do(t, http.MethodPost, "/game/"+sess.ID+"/start", url.Values{}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, game.DifficultyMedium, sess.Difficulty())
}

func TestPowerup(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")

	rec := env.do(t, http.MethodPost, "/game/"+sess.ID+"/powerup", url.Values{}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	snap := sess.Snapshot()
	assert.Equal(t, 2, snap.Powerups)
	for _, c := range snap.Cards {
		assert.True(t, c.FaceUp)
	}

	env.clock.Advance(2 * time.Second)
	for _, c := range sess.Snapshot().Cards {
		assert.False(t, c.FaceUp)
	}
}

func TestActions_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/start", "/reset", "/difficulty", "/powerup", "/cards/0/flip"} {
		rec := env.do(t, http.MethodPost, "/game/nope"+path, url.Values{}, true)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestToggleTheme(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/theme", url.Values{"redirect": {"/game/abc"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/game/abc", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, themeCookie, cookies[0].Name)
	assert.Equal(t, themeDark, cookies[0].Value)

	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader("redirect=https://evil.test"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, themeLight, rec.Result().Cookies()[0].Value)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `class="dark-theme"`)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                "/",
		"/":               "/",
		"/game/x":         "/game/x",
		"//evil.test":     "/",
		"https://evil.io": "/",
		"/\\evil.test":    "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirect(in), in)
	}
}

func TestBoardColumns(t *testing.T) {
	assert.Equal(t, 1, boardColumns(0))
	assert.Equal(t, 3, boardColumns(6))
	assert.Equal(t, 4, boardColumns(10))
	assert.Equal(t, 4, boardColumns(16))
}

func TestStream_SendsInitialFragments(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newGame(t, "easy")
	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/game/"+sess.ID+"/stream", nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
			if len(events) == 3 {
				break
			}
		}
	}
	assert.Equal(t, []string{game.EventStatus, game.EventBoard, game.EventOutcome}, events)
}

func TestStream_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/game/missing/stream", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
