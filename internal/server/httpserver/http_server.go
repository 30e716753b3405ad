// Package httpserver wires the control panel's HTTP surface: the JSON API,
// the HTML pages, static assets, and the metrics endpoint.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Zaybrah/sleepless-agent/internal/config"
	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	derrors "github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/metrics"
	"github.com/Zaybrah/sleepless-agent/internal/server/handlers"
	smw "github.com/Zaybrah/sleepless-agent/internal/server/middleware"
	"github.com/Zaybrah/sleepless-agent/internal/version"
	"github.com/Zaybrah/sleepless-agent/internal/workspace"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 8080
)

// Options carries the runtime collaborators the server exposes over HTTP.
type Options struct {
	Supervisor handlers.AgentController
	Workspace  *workspace.Service
	Events     eventstore.Store
	ConfigPath string

	// Credentials gate every endpoint except static assets and /healthz.
	Credentials config.Credentials

	// Recorder and Registry enable Prometheus metrics; both default to
	// working no-op/ad-hoc instances when unset.
	Recorder metrics.Recorder
	Registry *prom.Registry
}

// Server manages the panel's single HTTP endpoint.
type Server struct {
	server       *http.Server
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	agentHandlers      *handlers.AgentHandlers
	fileHandlers       *handlers.FileHandlers
	configHandlers     *handlers.ConfigHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}

	audit := eventstore.NewRecorder(opts.Events)

	s.agentHandlers = handlers.NewAgentHandlers(opts.Supervisor, s.errorAdapter, opts.Recorder, audit)
	s.fileHandlers = handlers.NewFileHandlers(opts.Workspace, s.errorAdapter, audit)
	s.configHandlers = handlers.NewConfigHandlers(opts.ConfigPath, s.errorAdapter, audit)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(s.errorAdapter, opts.Events, version.Version)

	gate := smw.NewAuthGate(opts.Credentials)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, opts.Recorder, gate)

	return s
}

// Handler returns the fully wired root handler, middleware included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.homePage)
	mux.HandleFunc("GET /files", s.filesPage)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles))))

	mux.HandleFunc("GET /api/agent/status", s.agentHandlers.Status)
	mux.HandleFunc("POST /api/agent/start", s.agentHandlers.Start)
	mux.HandleFunc("POST /api/agent/stop", s.agentHandlers.Stop)

	mux.HandleFunc("GET /api/files/browse", s.fileHandlers.Browse)
	mux.HandleFunc("GET /api/files/read", s.fileHandlers.Read)
	mux.HandleFunc("POST /api/files/write", s.fileHandlers.Write)
	mux.HandleFunc("POST /api/files/create-folder", s.fileHandlers.CreateFolder)
	mux.HandleFunc("POST /api/files/delete", s.fileHandlers.Delete)

	mux.HandleFunc("GET /api/config", s.configHandlers.Get)
	mux.HandleFunc("POST /api/config", s.configHandlers.Update)

	mux.HandleFunc("GET /api/events", s.monitoringHandlers.Events)
	mux.HandleFunc("GET /healthz", s.monitoringHandlers.Health)

	if s.opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.opts.Registry))
	}

	return s.mchain(mux)
}

// Addr resolves the listen address from configuration, falling back to
// 127.0.0.1:8080.
func (s *Server) Addr() string {
	host := s.cfg.WebUI.Host
	if host == "" {
		host = defaultHost
	}
	port := s.cfg.WebUI.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Start binds the listen port and begins serving. Binding happens up front so
// an occupied port fails fast instead of surfacing from a goroutine later.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Addr()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("Control panel started", slog.String("addr", "http://"+addr))
	if s.opts.Credentials.Enabled() {
		slog.Info("Basic authentication enabled", slog.String("username", s.opts.Credentials.Username))
	} else {
		slog.Warn("Basic authentication disabled; set WEBUI_PASSWORD to enable")
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("Control panel stopped")
	return nil
}
