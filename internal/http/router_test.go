package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"listkeeper/internal/config"
	"listkeeper/internal/domain/listparams"
	middlewarex "listkeeper/internal/http/middleware"
	listsvc "listkeeper/internal/services/listparams"
	"listkeeper/internal/store/memory"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "8f14e45f-ceea-467a-9575-7f0a2c3d1b11"

type testServer struct {
	handler http.Handler
	svc     *listsvc.Service
	repo    *memory.ParamsRepository
	clock   *clockwork.FakeClock
}

func newTestServer(t *testing.T, adminToken string) *testServer {
	t.Helper()
	repo := memory.NewParamsRepository()
	clock := clockwork.NewFakeClock()
	cfg := config.Cfg{
		App: config.AppCfg{Env: "test", BasePath: "/api/v1/lists"},
		Sec: config.SecurityCfg{AdminToken: adminToken},
	}
	svc := listsvc.NewService(context.Background(), repo, nil, listsvc.Config{
		Resources: map[string]listsvc.ResourceConfig{
			"posts": {
				Sort:                listparams.Sort{Field: "id", Order: listparams.OrderDesc},
				PerPage:             10,
				FilterDefaultValues: listparams.Filter{"status": "published"},
			},
		},
		BasePath: cfg.App.BasePath,
		Debounce: 200 * time.Millisecond,
		Clock:    clock,
	})
	return &testServer{
		handler: NewRouter(RouterDependencies{Config: cfg, ListService: svc}),
		svc:     svc,
		repo:    repo,
		clock:   clock,
	}
}

func (s *testServer) do(t *testing.T, method, target, contentType, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func sessionHeader() http.Header {
	return http.Header{middlewarex.SessionHeader: []string{testSession}}
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) listparams.Snapshot {
	t.Helper()
	var snap listparams.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListResources(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/lists/", "", "", sessionHeader())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"resources":[{"name":"posts"}]}`, rec.Body.String())
}

func TestGetListIssuesSessionCookie(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/lists/posts", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewarex.SessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestGetListMergesQuery(t *testing.T) {
	s := newTestServer(t, "")

	q := url.Values{"page": {"2"}, "filter": {`{"q":"go"}`}, "utm": {"x"}}
	rec := s.do(t, http.MethodGet, "/api/v1/lists/posts?"+q.Encode(), "", "", sessionHeader())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	snap := decodeSnapshot(t, rec)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, 10, snap.PerPage)
	assert.Equal(t, "id", snap.Sort)
	assert.Equal(t, listparams.OrderDesc, snap.Order)
	assert.Equal(t, listparams.Filter{"q": "go"}, snap.Filter)
}

func TestGetListUnknownResource(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/lists/users", "", "", sessionHeader())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetPageRedirectsAndPersists(t *testing.T) {
	s := newTestServer(t, "")
	form := "application/x-www-form-urlencoded"

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/page", form, "page=3", sessionHeader())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/lists/posts", loc.Path)
	assert.Equal(t, "3", loc.Query().Get("page"))

	// a bare visit restores the stored params
	rec = s.do(t, http.MethodGet, "/api/v1/lists/posts", "", "", sessionHeader())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeSnapshot(t, rec).Page)

	rec = s.do(t, http.MethodGet, "/api/v1/lists/posts/history", "", "", sessionHeader())
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		History []string `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history.History, 3)
}

func TestSetPageRejectsBadInput(t *testing.T) {
	s := newTestServer(t, "")
	form := "application/x-www-form-urlencoded"

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/page", form, "page=abc", sessionHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/page", form, "", sessionHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/page", form, "page=0", sessionHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetPerPageAndSort(t *testing.T) {
	s := newTestServer(t, "")
	form := "application/x-www-form-urlencoded"

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/per-page", form, "perPage=50", sessionHeader())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/sort", form, "field=title&order=ASC", sessionHeader())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "title", loc.Query().Get("sort"))
	assert.Equal(t, "ASC", loc.Query().Get("order"))
	assert.Equal(t, "50", loc.Query().Get("perPage"))

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/sort", form, "field=title&order=UP", sessionHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetFiltersIsDebounced(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/filters", "application/json", `{"q":"go","tag":""}`, sessionHeader())
	require.Equal(t, http.StatusAccepted, rec.Code)

	_, err := s.repo.Load(ctx, testSession, "posts")
	require.Error(t, err)

	s.clock.Advance(200 * time.Millisecond)
	require.Eventually(t, func() bool {
		p, err := s.repo.Load(ctx, testSession, "posts")
		return err == nil && p.Filter["q"] == "go"
	}, time.Second, 5*time.Millisecond)

	p, err := s.repo.Load(ctx, testSession, "posts")
	require.NoError(t, err)
	assert.Equal(t, listparams.Filter{"q": "go"}, p.Filter)
}

func TestSetFiltersRejectsNonObject(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/filters", "application/json", `["q"]`, sessionHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowAndHideFilter(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/filters/author/show", "application/json", `{"defaultValue":"ann"}`, sessionHeader())
	require.Equal(t, http.StatusAccepted, rec.Code)

	snap, err := s.svc.Snapshot(ctx, testSession, "posts")
	require.NoError(t, err)
	assert.Equal(t, "ann", snap.FilterValues["author"])
	assert.True(t, snap.DisplayedFilters["author"])

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/filters/category/show", "", "", sessionHeader())
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/filters/author/hide", "", "", sessionHeader())
	require.Equal(t, http.StatusAccepted, rec.Code)

	snap, err = s.svc.Snapshot(ctx, testSession, "posts")
	require.NoError(t, err)
	assert.NotContains(t, snap.FilterValues, "author")
	assert.Equal(t, listparams.DisplayedFilters{"author": false, "category": true}, snap.DisplayedFilters)
}

func TestAdminForgetSession(t *testing.T) {
	ctx := context.Background()

	disabled := newTestServer(t, "")
	rec := disabled.do(t, http.MethodDelete, "/admin/sessions/"+testSession, "", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s := newTestServer(t, "secret")
	require.NoError(t, s.repo.Save(ctx, testSession, "posts", listparams.ListParams{Page: 2}))

	rec = s.do(t, http.MethodDelete, "/admin/sessions/"+testSession, "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/admin/sessions/"+testSession, "", "", http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/admin/sessions/"+testSession, "", "", http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.repo.Load(ctx, testSession, "posts")
	assert.Error(t, err)
}

func TestFilterBodiesAreCapped(t *testing.T) {
	s := newTestServer(t, "")
	large := `{"q":"` + strings.Repeat("x", 128<<10) + `"}`

	rec := s.do(t, http.MethodPost, "/api/v1/lists/posts/filters", "application/json", large, sessionHeader())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/lists/posts/filters/q/show", "application/json", `{"defaultValue":"`+strings.Repeat("x", 128<<10)+`"}`, sessionHeader())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	_, err := s.repo.Load(context.Background(), testSession, "posts")
	assert.Error(t, err)
	snap, err := s.svc.Snapshot(context.Background(), testSession, "posts")
	require.NoError(t, err)
	assert.Empty(t, snap.DisplayedFilters)
}
