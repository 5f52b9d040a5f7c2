// Package webserver serves the browser front end: server-rendered pages for
// settings, menu and shopping, the chat overlay and its websocket, plus the
// JSON API and operational endpoints on the same listener.
package webserver

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/infrastructure/config"
	"github.com/holidaytable/planner/internal/infrastructure/http/handlers"
	"github.com/holidaytable/planner/internal/infrastructure/http/middleware"
	"github.com/holidaytable/planner/internal/infrastructure/monitoring"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/pkg/healthcheck"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// WebServer represents the web frontend HTTP server
type WebServer struct {
	config   *config.Config
	logger   *zap.Logger
	planner  inbound.PlannerService
	chat     inbound.ChatService
	sessions *SessionStore
	api      *handlers.APIHandlers
	health   *healthcheck.HealthCheck
	metrics  *monitoring.MetricsCollector
	pages    map[string]*template.Template
	upgrader websocket.Upgrader
	router   chi.Router
	server   *http.Server
}

// NewWebServer creates a new web frontend server instance. health and
// metrics may be nil.
func NewWebServer(
	cfg *config.Config,
	logger *zap.Logger,
	plannerService inbound.PlannerService,
	chatService inbound.ChatService,
	sessions *SessionStore,
	api *handlers.APIHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) (*WebServer, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &WebServer{
		config:   cfg,
		logger:   logger.Named("webserver"),
		planner:  plannerService,
		chat:     chatService,
		sessions: sessions,
		api:      api,
		health:   health,
		metrics:  metrics,
		pages:    pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// Handler returns the root handler
func (s *WebServer) Handler() http.Handler {
	return s.router
}

func (s *WebServer) setupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security)
	if s.config.Server.EnableCompression {
		r.Use(middleware.Compression(middleware.DefaultCompressionConfig()))
	}

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	engine := s.ginEngine()
	r.Handle("/api/v1/*", engine)
	if s.health != nil {
		r.Method(http.MethodGet, "/health", engine)
		r.Method(http.MethodGet, "/ready", engine)
		r.Method(http.MethodGet, "/live", engine)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// gin records its own routes; pages are counted here
	r.Group(func(r chi.Router) {
		if s.metrics != nil {
			r.Use(s.metrics.Middleware)
		}
		r.Use(s.sessions.Middleware)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/settings", http.StatusFound)
		})

		r.Get("/settings", s.handleSettings)
		r.Post("/settings/party", s.handleUpdateParty)
		r.Post("/settings/drinks", s.handleUpdateDrinks)

		r.Get("/menu", s.handleMenu)
		r.Post("/menu/dishes", s.handleAddDish)
		r.Post("/menu/suggest", s.handleSuggestDish)
		r.Post("/menu/dishes/{id}/delete", s.handleRemoveDish)

		r.Get("/shopping", s.handleShopping)
		r.Post("/shopping/prices", s.handleRefreshPrices)
		r.Get("/shopping/export.xlsx", s.handleExport)

		r.Post("/chat", s.handleChat)
		r.Get("/ws/chat", s.handleChatSocket)
	})

	return r
}

// ginEngine builds the JSON API and health endpoints
func (s *WebServer) ginEngine() *gin.Engine {
	m := middleware.New(s.logger)
	engine := gin.New()
	engine.Use(m.RequestID(), m.Logger(), m.Recovery(), m.ErrorHandler())
	if s.metrics != nil {
		engine.Use(s.metrics.HTTPMiddleware())
	}

	if s.api != nil {
		s.api.RegisterRoutes(engine.Group("/api/v1"))
	}
	if s.health != nil {
		engine.GET("/health", s.health.Handler())
		engine.GET("/ready", s.health.ReadinessHandler())
		engine.GET("/live", s.health.LivenessHandler())
	}
	return engine
}

// Start starts the HTTP server and blocks until it stops
func (s *WebServer) Start() error {
	s.logger.Info("Starting web server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server")
	return s.server.Shutdown(ctx)
}

func parseTemplates() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"euro": planner.FormatEuro,
		"timeOf": func(t time.Time) string {
			return t.Format("15:04")
		},
	}

	base, err := template.New("layout").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/chat.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"settings", "menu", "shopping"} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templatesFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		pages[name] = clone
	}
	return pages, nil
}
