// Package server exposes the orchestration engine over HTTP: task runs,
// order status lookups, capability listing, and a websocket stream of step
// events.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"souschef/internal/agent/domain"
	"souschef/internal/agent/ports"
	"souschef/internal/logging"
	"souschef/internal/observability"
	"souschef/internal/rpc"
)

// Config holds the HTTP server settings
type Config struct {
	Host         string
	Port         int
	EnableCORS   bool
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the standard server settings
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8420,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
}

// Deps are the wired components the server serves
type Deps struct {
	Dispatcher     *domain.Dispatcher
	Registry       ports.CapabilityRegistry
	DeliveryClient *rpc.Client
	MaxIterations  int
	Recipient      string // Default notification recipient for API tasks
	Logger         logging.Logger
	Observer       *observability.Observer
}

// Server is the souschef HTTP server
type Server struct {
	deps       Deps
	config     Config
	engine     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
	logger     logging.Logger
	startTime  time.Time
}

// New creates a server with its routes registered
func New(deps Deps, config Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		corsConfig.AllowWebSockets = true
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		deps:   deps,
		config: config,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:    logging.OrNop(deps.Logger),
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	if s.deps.Observer != nil {
		if handler := s.deps.Observer.Handler(); handler != nil {
			s.engine.GET("/metrics", gin.WrapH(handler))
		}
	}

	api := s.engine.Group("/api")
	{
		api.POST("/tasks", s.handleRunTask)
		api.GET("/orders/:id", s.handleOrderStatus)
		api.GET("/capabilities", s.handleCapabilities)
	}

	s.engine.GET("/ws/tasks", s.handleTaskStream)
}

// Handler returns the underlying router, used by tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until the listener fails or Stop is called
func (s *Server) Start() error {
	s.logger.Info("souschef server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("souschef server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// newEngine builds a per-request engine so each run can carry its own
// event listener.
func (s *Server) newEngine(listener ports.EventListener) *domain.Engine {
	return domain.NewEngine(s.deps.Dispatcher, domain.EngineOptions{
		MaxIterations: s.deps.MaxIterations,
		Logger:        s.deps.Logger,
		Listener:      listener,
		Observer:      s.deps.Observer,
	})
}
