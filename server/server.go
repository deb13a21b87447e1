package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/resilience"
	"github.com/kbukum/voicenote/server/endpoint"
	"github.com/kbukum/voicenote/server/middleware"
)

// publicPaths bypass bearer authentication.
var publicPaths = []string{"/health", "/info", "/metrics"}

// limiterSweepInterval is how often idle rate-limit buckets are dropped.
const limiterSweepInterval = time.Minute

// Server is the HTTP surface backed by Gin. The standard middleware stack
// wraps the whole handler tree at construction time.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	limiter    *resilience.KeyedRateLimiter
	config     Config
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
	stop     chan struct{}
}

// New creates a new Server. Call ApplyDefaults on the config first.
func New(cfg Config, log *logger.Logger) *Server {
	// Set Gin mode based on global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("server")

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	rateLimit, limiter := middleware.RateLimit(cfg.RateLimit)
	chain := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(&cfg.CORS),
		middleware.RequestLogger(log),
		middleware.BodySizeLimit(cfg.MaxBodySize),
		middleware.Auth(middleware.AuthConfig{
			Secret:    cfg.AuthSecret,
			Issuer:    cfg.AuthIssuer,
			SkipPaths: publicPaths,
		}),
		rateLimit,
	)
	handler := chain(engine)

	// HTTP/2 cleartext for clients that speak it without TLS.
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           h2c.NewHandler(handler, h2s),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		handler:    handler,
		limiter:    limiter,
		config:     cfg,
		log:        log,
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the full handler tree including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})

	tlsConfig, err := s.config.TLS.ServerConfig()
	if err != nil {
		return fmt.Errorf("server tls: %w", err)
	}
	s.httpServer.TLSConfig = tlsConfig

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go func() {
		var err error
		if tlsConfig != nil {
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()
	go s.sweepLimiter(stop)

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
		"tls":  tlsConfig != nil,
	})
	return nil
}

func (s *Server) sweepLimiter(stop <-chan struct{}) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(); n > 0 {
				s.log.Debug("Rate limiter swept", map[string]interface{}{"removed": n})
			}
		}
	}
}

// Stop gracefully shuts down the server. In-flight transcription requests
// are given the shutdown timeout to finish.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// RegisterDefaultEndpoints registers /health, /info and /metrics.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker, settings map[string]any, stats endpoint.StatsFunc) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName, settings))
	s.engine.GET("/metrics", endpoint.Metrics(stats))
}

// RegisterTranscriptions mounts the transcription API.
func (s *Server) RegisterTranscriptions(sub endpoint.Submitter, opts endpoint.TranscribeOptions) {
	if opts.Locale == "" {
		opts.Locale = s.config.Locale
	}
	if opts.Log == nil {
		opts.Log = s.log
	}
	v1 := s.engine.Group("/v1")
	v1.POST("/transcriptions", endpoint.Transcribe(sub, opts))
}
