package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/fieldline/engine/internal/archive"
	"github.com/fieldline/engine/internal/metrics"
	"github.com/fieldline/engine/internal/session"
	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/internal/util"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/run"
)

// Server implements the HTTP API server for the condition engine
type Server struct {
	store    store.Store
	archiver archive.Archiver
	sessions *session.Manager
	metrics  *metrics.Metrics
	runner   *run.Runner
	logger   *slog.Logger
	sockets  util.Set[*Client]
	mu       sync.Mutex
}

// NewServer creates a new HTTP API server. A nil archiver disables revision
// history and nil metrics disables recording
func NewServer(
	st store.Store, arch archive.Archiver, sessions *session.Manager,
	m *metrics.Metrics, logger *slog.Logger,
) *Server {
	if arch == nil {
		arch = archive.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    st,
		archiver: arch,
		sessions: sessions,
		metrics:  m,
		runner:   run.NewRunner(logger),
		logger:   logger,
		sockets:  util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return s.logger
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", s.handleHealth)

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// Condition rendering for editors
	router.POST("/describe", s.describeCondition)

	// Workflow endpoints
	wf := router.Group("/workflow")
	{
		wf.GET("", s.listWorkflows)
		wf.GET("/", s.listWorkflows)
		wf.POST("", s.registerWorkflow)
		wf.GET("/:workflowID", s.getWorkflow)
		wf.PUT("/:workflowID", s.updateWorkflow)
		wf.DELETE("/:workflowID", s.deleteWorkflow)
		wf.GET("/:workflowID/revisions", s.listRevisions)

		// Stateless run operations
		wf.POST("/:workflowID/evaluate", s.evaluateWorkflow)
		wf.POST("/:workflowID/next", s.nextSection)
		wf.POST("/:workflowID/validate", s.validateRun)
	}

	// Live run endpoints
	router.GET("/ws", s.handleWebSocket)
	rn := router.Group("/run")
	{
		rn.GET("/:runID", s.getRun)
		rn.DELETE("/:runID", s.endRun)
	}

	return router
}

// derive evaluates the workflow against the answers, recording the elapsed
// time under the named operation
func (s *Server) derive(
	wf *api.Workflow, data api.DataMap, operation string,
) *run.View {
	started := time.Now()
	view := s.runner.Evaluate(wf, data)
	if s.metrics != nil {
		s.metrics.RecordEvaluation(operation, time.Since(started))
	}
	return view
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections.
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := s.sockets.Items()
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
