package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/docmerge/internal/build"
	"github.com/conneroisu/docmerge/internal/testutils"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*PreviewServer, *httptest.Server) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("output", 0o755))
	require.NoError(t, afero.WriteFile(fs, "output/index.html", []byte("<h1>index</h1>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "output/loops.html", []byte("<h1>Loops</h1>"), 0o644))

	s := New(testutils.CreateTestConfig(".", "output"), fs, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = s.Shutdown(context.Background())
	})
	return s, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServesSiteFiles(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/loops.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Loops</h1>", body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp, body = get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>index</h1>", body)

	resp, _ = get(t, srv.URL+"/missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := get(t, srv.URL+HealthPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, health["version"])
}

func TestStatus(t *testing.T) {
	s, srv := newTestServer(t)

	resp, _ := get(t, srv.URL+StatusPath)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.OnBuild(build.BuildResult{
		Pages:    []string{"loops"},
		Skipped:  []string{"broken"},
		Files:    []string{"output/loops.html"},
		Error:    errors.New("page broken failed"),
		Duration: 15 * time.Millisecond,
	})

	resp, body := get(t, srv.URL+StatusPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status BuildStatus
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, []string{"loops"}, status.Pages)
	assert.Equal(t, []string{"broken"}, status.Skipped)
	assert.Equal(t, "page broken failed", status.Error)
	assert.Equal(t, "15ms", status.Duration)
}

func TestOnBuildNotifiesBrowsers(t *testing.T) {
	s, srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WebSocketPath
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return s.hub.ConnectedClients() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.OnBuild(build.BuildResult{Pages: []string{"loops"}, Files: []string{"output/loops.html"}})
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"reload"`)
	assert.Contains(t, string(data), `"pages":["loops"]`)

	s.OnBuild(build.BuildResult{Error: errors.New("manifest invalid")})
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"error"`)
	assert.Contains(t, string(data), `"error":"manifest invalid"`)
}

func TestStartAndShutdown(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("output", 0o755))
	require.NoError(t, afero.WriteFile(fs, "output/index.html", []byte("home"), 0o644))

	s := New(testutils.CreateTestConfig(".", "output"), fs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, body := get(t, "http://"+s.Addr()+"/index.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "home", body)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
