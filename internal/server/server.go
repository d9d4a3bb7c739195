// Package server exposes conversation turns over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/planner/internal/dispatch"
	"github.com/vinayprograms/planner/internal/metrics"
)

// Turner runs one conversation turn.
type Turner interface {
	Turn(ctx context.Context, req dispatch.TurnRequest) (*dispatch.TurnResponse, error)
}

// Config controls the HTTP surface.
type Config struct {
	Addr        string
	CORSOrigins []string
	RateLimit   float64 // requests per second per client, 0 = off
	RateBurst   int
}

// Server serves turns, tool definitions, health and metrics.
type Server struct {
	cfg      Config
	turner   Turner
	tools    func() []llm.ToolDef
	limiter  *clientLimiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	engine   *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics attaches collectors and the registry served on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New builds the router. tools lists the backend tool definitions.
func New(cfg Config, turner Turner, tools func() []llm.ToolDef, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		turner:   turner,
		tools:    tools,
		limiter:  newClientLimiter(cfg.RateLimit, cfg.RateBurst, 1024),
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.New().WithComponent("server"),
	}
	for _, o := range opts {
		o(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", map[string]interface{}{"addr": s.cfg.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))
	r.Use(s.observe())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/tools", s.handleTools)
	api.POST("/turn", s.rateLimit(), s.handleTurn)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTPRequest(route, strconv.Itoa(c.Writer.Status()))
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleTools(c *gin.Context) {
	defs := s.tools()
	out := make([]dispatch.ToolDescriptor, 0, len(defs))
	for _, d := range defs {
		out = append(out, dispatch.ToolDescriptor{Name: d.Name, Description: d.Description, Parameters: d.Parameters})
	}
	c.JSON(http.StatusOK, gin.H{"tools": out})
}

func (s *Server) handleTurn(c *gin.Context) {
	var req dispatch.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	resp, err := s.turner.Turn(c.Request.Context(), req)
	if err != nil {
		requestID := uuid.NewString()
		s.logger.Error("turn failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "requestId": requestID})
		return
	}
	c.JSON(http.StatusOK, resp)
}
