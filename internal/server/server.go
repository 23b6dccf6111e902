// Package server serves a built site for local preview, pushing reload
// notifications over a websocket whenever the site is rebuilt.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/conneroisu/docmerge/internal/build"
	"github.com/conneroisu/docmerge/internal/config"
	"github.com/conneroisu/docmerge/internal/logging"
	"github.com/conneroisu/docmerge/internal/version"
	"github.com/conneroisu/docmerge/internal/websocket"
	"github.com/spf13/afero"
)

// Routes served next to the site files.
const (
	WebSocketPath = "/_docmerge/ws"
	StatusPath    = "/_docmerge/status"
	HealthPath    = "/_docmerge/health"
)

// BuildStatus is the outcome of the most recent build.
type BuildStatus struct {
	Pages     []string  `json:"pages"`
	Skipped   []string  `json:"skipped,omitempty"`
	Error     string    `json:"error,omitempty"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// PreviewServer serves the output directory with live reload.
type PreviewServer struct {
	config     *config.Config
	fs         afero.Fs
	hub        *websocket.Manager
	logger     logging.Logger
	httpServer *http.Server
	listener   net.Listener

	statusMutex sync.RWMutex
	status      *BuildStatus

	serverMutex  sync.Mutex
	shutdownOnce sync.Once
}

// New creates a preview server for cfg reading site files from fs.
func New(cfg *config.Config, fs afero.Fs, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	return &PreviewServer{
		config: cfg,
		fs:     fs,
		hub:    websocket.NewManager(logger, cfg.Server.Host+":*"),
		logger: logger,
	}
}

// Handler returns the HTTP handler for the site and the preview endpoints.
func (s *PreviewServer) Handler() http.Handler {
	site := afero.NewHttpFs(s.fs).Dir(s.config.Build.Output)

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.hub.HandleWebSocket)
	mux.HandleFunc(StatusPath, s.handleStatus)
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle("/", http.FileServer(site))

	return s.addMiddleware(mux)
}

// OnBuild records a build and notifies connected browsers. It matches
// build.BuildCallback.
func (s *PreviewServer) OnBuild(result build.BuildResult) {
	status := &BuildStatus{
		Pages:     result.Pages,
		Skipped:   result.Skipped,
		Duration:  result.Duration.String(),
		Timestamp: time.Now(),
	}
	if result.Error != nil {
		status.Error = result.Error.Error()
	}

	s.statusMutex.Lock()
	s.status = status
	s.statusMutex.Unlock()

	// A keep-going build still wrote files worth reloading.
	if result.Error != nil && len(result.Files) == 0 {
		s.hub.NotifyError(result.Error)
		return
	}
	s.hub.NotifyReload(result.Pages)
}

// Status returns the last recorded build, or nil before the first one.
func (s *PreviewServer) Status() *BuildStatus {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.status
}

// Start listens on the configured address and serves until ctx is done or
// Shutdown is called.
func (s *PreviewServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.serverMutex.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "url", "http://"+ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start is listening.
func (s *PreviewServer) Addr() string {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the websocket hub and the HTTP server.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		_ = s.hub.Shutdown(ctx)

		s.serverMutex.Lock()
		server := s.httpServer
		s.serverMutex.Unlock()
		if server != nil {
			err = server.Shutdown(ctx)
		}
	})
	return err
}

func (s *PreviewServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.Status()
	if status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no build has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Get().Short(),
		"clients": s.hub.ConnectedClients(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// addMiddleware disables caching so reloads always fetch fresh pages, and
// logs each request.
func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
