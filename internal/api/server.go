package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/tyncan/internal/api/models"
	"github.com/smazurov/tyncan/internal/inventory"
	"github.com/smazurov/tyncan/internal/logging"
	"github.com/smazurov/tyncan/internal/version"
)

// DeviceLister enumerates capture devices. *capture.Lister implements it.
type DeviceLister interface {
	List(ctx context.Context) ([]inventory.CaptureDevice, error)
}

// ServiceStatusGetter reads unit state. *systemd.Manager implements it.
type ServiceStatusGetter interface {
	GetServiceStatus(ctx context.Context, serviceName string) (string, error)
}

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Lister            DeviceLister
	Selection         *Selection
	Services          ServiceStatusGetter // Optional; status route is skipped when nil
	ServiceUnit       string
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the Huma v2 HTTP API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	if opts.Selection == nil {
		opts.Selection = NewSelection(nil)
	}

	mux := http.NewServeMux()
	addPreflightHandler(mux)

	config := huma.DefaultConfig(version.Name+" API", version.Version)
	config.Info.Description = "Audio capture device inventory for " + version.Name + " nodes"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api: api,
		mux: mux,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	api.UseMiddleware(corsMiddleware)
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		metrics := opts.PrometheusHandler
		if opts.AuthUsername != "" && opts.AuthPassword != "" {
			metrics = requireBasicAuth(opts.AuthUsername, opts.AuthPassword, metrics)
		}
		mux.Handle("GET /metrics", metrics)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until the server stops.
func (s *Server) Serve(ln net.Listener) error {
	addr := ln.Addr().String()
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Name:      info.Name,
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerDeviceRoutes()
	s.registerSystemdRoutes()
}

// withAuth returns security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
