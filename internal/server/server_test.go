package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvbrowser/internal/config"
	"github.com/voyagen/iptvbrowser/internal/logging"
	"github.com/voyagen/iptvbrowser/internal/models"
	"github.com/voyagen/iptvbrowser/internal/player"
	"github.com/voyagen/iptvbrowser/internal/recent"
	"github.com/voyagen/iptvbrowser/internal/service"
	"github.com/voyagen/iptvbrowser/internal/store"
	"github.com/voyagen/iptvbrowser/internal/test"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="tn.ar" tvg-name="TN" tvg-logo="" group-title="AR spa News",TN
http://stream.example/tn.m3u8
#EXTINF:-1 tvg-id="bbc.uk" tvg-name="BBC" tvg-logo="" group-title="GB eng News",BBC One
http://stream.example/bbc.m3u8
`

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type env struct {
	srv      *Server
	browser  *service.Browser
	clock    *test.ManualClock
	playlist *httptest.Server
}

func newEnv(t *testing.T, pinger Pinger) *env {
	t.Helper()
	log := logging.Discard()

	playlist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.m3u" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	t.Cleanup(playlist.Close)

	kv := store.NewMemory()
	rl := recent.NewList(kv, models.RecentChannelsKey, recent.WithLogger(log))
	clock := &test.ManualClock{}
	b := service.New(rl, player.NewSession(test.NewFakePlayer(), log), service.Options{
		Clock:   clock,
		Sources: map[string]string{"local": playlist.URL + "/list.m3u"},
		Log:     log,
	})
	t.Cleanup(b.Close)

	cfg := config.Defaults()
	return &env{srv: New(b, pinger, cfg, log), browser: b, clock: clock, playlist: playlist}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (e *env) load(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/playlist", map[string]string{"source": "local"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	e := newEnv(t, pingFunc(func(context.Context) error { return nil }))
	rec := e.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	e = newEnv(t, pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = e.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "degraded", decode[map[string]string](t, rec)["status"])
}

func TestLoadPlaylist(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/api/playlist", map[string]string{"url": e.playlist.URL + "/list.m3u"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.EqualValues(t, 2, body["channel_count"])

	rec = e.do(t, http.MethodGet, "/api/channels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Channels []models.Channel `json:"channels"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)
	require.Equal(t, "TN", list.Channels[0].Name)
}

func TestLoadPlaylistValidation(t *testing.T) {
	e := newEnv(t, nil)

	for _, body := range []any{
		map[string]string{},
		map[string]string{"url": "http://a", "source": "local"},
		map[string]string{"url": "ftp://example.com/list.m3u"},
	} {
		rec := e.do(t, http.MethodPost, "/api/playlist", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/playlist", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/playlist", map[string]string{"source": "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoadPlaylistUpstreamFailure(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/api/playlist", map[string]string{"url": e.playlist.URL + "/missing.m3u"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	apiErr := decode[APIError](t, rec)
	require.Equal(t, "Error loading playlist (HTTP 404)", apiErr.Detail)

	rec = e.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, "Error loading playlist (HTTP 404)", decode[service.State](t, rec).Error)

	rec = e.do(t, http.MethodDelete, "/api/error", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, "/api/state", nil)
	require.Empty(t, decode[service.State](t, rec).Error)
}

func TestLoadPlaylistBusy(t *testing.T) {
	e := newEnv(t, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer slow.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var first *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		first = e.do(t, http.MethodPost, "/api/playlist", map[string]string{"url": slow.URL})
	}()
	<-started

	rec := e.do(t, http.MethodPost, "/api/playlist", map[string]string{"source": "local"})
	require.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	wg.Wait()
	require.Equal(t, http.StatusOK, first.Code)
}

func TestSearchAndFlush(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := e.do(t, http.MethodPut, "/api/search", map[string]string{"q": "bbc"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/channels", nil)
	require.EqualValues(t, 2, decode[map[string]any](t, rec)["visible"])

	rec = e.do(t, http.MethodGet, "/api/channels?flush=true", nil)
	require.EqualValues(t, 1, decode[map[string]any](t, rec)["visible"])

	rec = e.do(t, http.MethodGet, "/api/channels?flush=maybe", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilter(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := e.do(t, http.MethodGet, "/api/filters/language", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var values struct {
		Field  string   `json:"field"`
		Values []string `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	require.Equal(t, []string{"eng", "spa"}, values.Values)

	rec = e.do(t, http.MethodGet, "/api/filters/quality", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/filter", models.Filter{Language: "spa"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode[map[string]any](t, rec)["visible"])

	rec = e.do(t, http.MethodPut, "/api/filter", models.Filter{Country: "FR"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/languages", nil)
	require.Equal(t, "Español", decode[map[string]string](t, rec)["spa"])
}

func TestSelectAndPlayback(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := e.do(t, http.MethodPost, "/api/select", map[string]string{"url": "http://nowhere"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/playback/error", map[string]string{"kind": "network"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/select", map[string]string{"url": "http://stream.example/bbc.m3u8"})
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[service.Selection](t, rec)
	require.Equal(t, "BBC One", sel.Channel.Name)
	require.NotNil(t, sel.Playback)

	rec = e.do(t, http.MethodGet, "/api/recent", nil)
	recentList := decode[[]models.Channel](t, rec)
	require.Len(t, recentList, 1)
	require.Equal(t, "http://stream.example/bbc.m3u8", recentList[0].URL)

	rec = e.do(t, http.MethodPost, "/api/playback/error", map[string]string{"kind": "media"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "recover", decode[map[string]any](t, rec)["action"])

	rec = e.do(t, http.MethodGet, "/api/playback", nil)
	require.True(t, decode[player.Status](t, rec).Playing)

	rec = e.do(t, http.MethodDelete, "/api/playback", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, "/api/playback", nil)
	require.False(t, decode[player.Status](t, rec).Playing)
}

func TestSources(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(t, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sources := decode[[]service.Source](t, rec)
	require.Len(t, sources, 1)
	require.Equal(t, "local", sources[0].Name)
}

func TestDocsAndMetrics(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "swagger-ui")

	rec = e.do(t, http.MethodGet, "/api/docs/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "openapi:")

	e.do(t, http.MethodGet, "/api/state", nil)
	rec = e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "iptvbrowser_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(t, http.MethodOptions, "/api/playlist", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
