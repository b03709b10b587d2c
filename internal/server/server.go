package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"subgen/internal/api"
	"subgen/internal/config"
	"subgen/internal/generate"
	"subgen/internal/history"
	"subgen/internal/logging"
	"subgen/internal/metrics"
)

//go:embed static/index.html
var staticFS embed.FS

const shutdownTimeout = 10 * time.Second

// Options wires the server's collaborators. History and Metrics are optional.
type Options struct {
	Config       *config.Config
	Orchestrator *generate.Orchestrator
	Hub          *Hub
	History      *history.Store
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Server serves the UI and API.
type Server struct {
	cfg     *config.Config
	orch    *generate.Orchestrator
	hub     *Hub
	runs    *api.HistoryService
	metrics *metrics.Metrics
	logger  *slog.Logger
	engine  *gin.Engine

	// runCtx parents every run started over HTTP so runs outlive their request.
	runCtx    context.Context
	runCancel context.CancelFunc
}

// New builds the gin engine and registers routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Orchestrator == nil {
		return nil, errors.New("server requires config and orchestrator")
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(opts.Logger)
	}
	logger := logging.NewComponentLogger(opts.Logger, "server")
	runCtx, runCancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:       opts.Config,
		orch:      opts.Orchestrator,
		hub:       opts.Hub,
		metrics:   opts.Metrics,
		logger:    logger,
		runCtx:    runCtx,
		runCancel: runCancel,
	}
	if opts.History != nil {
		s.runs = api.NewHistoryService(opts.History)
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.MaxMultipartMemory = 32 << 20

	r.GET("/", s.handleIndex)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	apiGroup.POST("/generate", s.handleGenerate)
	apiGroup.GET("/state", s.handleState)
	apiGroup.DELETE("/state", s.handleReset)
	apiGroup.GET("/download", s.handleDownload)
	apiGroup.GET("/ws", s.handleWS)
	apiGroup.GET("/runs", s.handleListRuns)
	apiGroup.GET("/runs/:id", s.handleGetRun)
	apiGroup.GET("/runs/:id/srt", s.handleRunSRT)

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully and cancels any in-flight run.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", logging.String("address", "http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		s.runCancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.runCancel()
	s.hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// ListenAndServe binds the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Bind, err)
	}
	return s.Serve(ctx, ln)
}
