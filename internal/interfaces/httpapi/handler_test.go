package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/infrastructure/repository/memory"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
	"github.com/thatssomoneybaby/nba-site/internal/usecase"
	"golang.org/x/oauth2"
)

type stubSession struct{ id string }

func (s *stubSession) SessionID() string { return s.id }

func (s *stubSession) AccessToken(context.Context) (string, error) { return "token", nil }

func (s *stubSession) Invalidate() {}

type stubSessions struct {
	active    map[string]usecase.ProviderSession
	installed map[string]*oauth2.Token
	dropped   []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{
		active:    make(map[string]usecase.ProviderSession),
		installed: make(map[string]*oauth2.Token),
	}
}

func (s *stubSessions) Ensure(sid string) (usecase.ProviderSession, string) {
	if sid == "" {
		sid = "minted-sid"
	}
	return &stubSession{id: sid}, sid
}

func (s *stubSessions) Get(sid string) (usecase.ProviderSession, bool) {
	session, ok := s.active[sid]
	return session, ok
}

func (s *stubSessions) Install(sid string, token *oauth2.Token) {
	s.installed[sid] = token
	s.active[sid] = &stubSession{id: sid}
}

func (s *stubSessions) Drop(_ context.Context, sid string) {
	s.dropped = append(s.dropped, sid)
	delete(s.active, sid)
}

type stubAuth struct{ enabled bool }

func (a stubAuth) Enabled() bool { return a.enabled }

func (a stubAuth) AuthCodeURL(state string) string {
	return "https://api.login.yahoo.com/oauth2/request_auth?state=" + state
}

func (a stubAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

type stubProvider struct{}

func (stubProvider) ListGames(context.Context, usecase.ProviderSession) (deepscan.Node, error) {
	return deepscan.Node{}, nil
}

func (stubProvider) ListLeagues(context.Context, usecase.ProviderSession, string) (deepscan.Node, error) {
	return deepscan.Node{}, nil
}

func (stubProvider) ListTeams(context.Context, usecase.ProviderSession, string) (deepscan.Node, error) {
	return deepscan.Node{}, nil
}

func (stubProvider) LeagueSettings(context.Context, usecase.ProviderSession, string) (deepscan.Node, error) {
	return deepscan.Node{}, nil
}

func (stubProvider) LeaguePlayers(context.Context, usecase.ProviderSession, string, usecase.PlayerQuery) (deepscan.Node, error) {
	return deepscan.Node{}, nil
}

func (stubProvider) TeamRoster(context.Context, usecase.ProviderSession, string) (deepscan.Node, error) {
	return deepscan.Node{}, nil
}

type handlerFixture struct {
	board    *usecase.BoardService
	sessions *stubSessions
	router   http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	board := usecase.NewBoardService(memory.NewDraftRepository(), logger)
	syncService := usecase.NewSyncService(stubProvider{}, board, nil, logger)
	exportService := usecase.NewExportService(stubProvider{}, syncService, logger)
	sessions := newStubSessions()
	handler := NewHandler(board, syncService, exportService, sessions, stubAuth{enabled: true}, logger)

	board.LoadPlayers(context.Background(), defaultProfileID, []player.Row{
		{ID: "5583", Name: "Stephen Curry", Team: "GSW", Position: "PG", Games: 70, Fantasy: 45.1},
		{ID: "6030", Name: "Jayson Tatum", Team: "BOS", Position: "SF", Games: 74, Fantasy: 47.8},
	})

	return &handlerFixture{
		board:    board,
		sessions: sessions,
		router:   NewRouter(handler, logger, nil),
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	fix := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", data["status"])
}

func TestGetBoard_ReturnsLoadedRows(t *testing.T) {
	fix := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/board", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	rows, ok := data["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)

	// Default sort is fantasy points descending.
	first, ok := rows[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Jayson Tatum", first["player"])
}

func TestToggleDrafted_RoundTrip(t *testing.T) {
	fix := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/board/drafted/5583", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, true, data["drafted"])

	rec = httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/board/drafted/5583", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data = decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, false, data["drafted"])
}

func TestClearDrafted_RequiresConfirmation(t *testing.T) {
	fix := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/board/drafted", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/board/drafted?confirm=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateFilters_RejectsInvalidDirection(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/board/filters", strings.NewReader(`{"sort_dir":"sideways"}`))
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateFilters_AppliesPartialUpdate(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/board/filters", strings.NewReader(`{"query":"tatum","hide_drafted":true}`))
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "tatum", data["query"])
	require.Equal(t, true, data["hide_drafted"])
	// Untouched fields keep their defaults.
	require.Equal(t, "fpts", data["sort_key"])
}

func TestSetRoster_ExplicitIDs(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/board/roster", strings.NewReader(`{"player_ids":["6030"]}`))
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	view := fix.board.Snapshot(context.Background(), defaultProfileID)
	require.NotNil(t, view.RosterTotals)
	require.Equal(t, 1, view.RosterTotals.Count)
}

func TestSetRoster_RequiresTeamKeyOrIDs(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/board/roster", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviderRoutes_RequireSession(t *testing.T) {
	fix := newHandlerFixture(t)

	paths := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodGet, path: "/v1/yahoo/games"},
		{method: http.MethodGet, path: "/v1/yahoo/leagues"},
		{method: http.MethodGet, path: "/v1/yahoo/teams/454.l.11001"},
		{method: http.MethodPost, path: "/v1/board/sync", body: `{"league_key":"454.l.11001"}`},
		{method: http.MethodGet, path: "/v1/board/export.csv"},
	}

	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			rec := httptest.NewRecorder()
			fix.router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, body))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestBeginAuth_RedirectsWithStateAndCookie(t *testing.T) {
	fix := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/yahoo", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://api.login.yahoo.com/oauth2/request_auth?state=minted-sid", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookieName, cookies[0].Name)
	require.Equal(t, "minted-sid", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestCompleteAuth_InstallsToken(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/yahoo/callback?code=abc&state=minted-sid", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "minted-sid"})
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, fix.sessions.installed, "minted-sid")
	require.Equal(t, "access-abc", fix.sessions.installed["minted-sid"].AccessToken)
}

func TestCompleteAuth_RejectsStateMismatch(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/yahoo/callback?code=abc&state=other-sid", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "minted-sid"})
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, fix.sessions.installed)
}

func TestLogout_DropsSessionAndClearsCookie(t *testing.T) {
	fix := newHandlerFixture(t)
	fix.sessions.Install("minted-sid", &oauth2.Token{AccessToken: "tok"})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "minted-sid"})
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"minted-sid"}, fix.sessions.dropped)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestProfileIDHeader_IsolatesBoards(t *testing.T) {
	fix := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/board/drafted/5583", nil)
	req.Header.Set("X-Profile-ID", "second")
	rec := httptest.NewRecorder()
	fix.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The default profile's board is untouched.
	view := fix.board.Snapshot(context.Background(), defaultProfileID)
	require.Zero(t, view.Counts.Drafted)
}
