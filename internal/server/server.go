package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muliwe/go-fizzbuzz/internal/logger"
	"github.com/muliwe/go-fizzbuzz/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

// Config holds server configuration
type Config struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	EnableDebug   bool
	LoggerConfig  logger.Config
	MetricsConfig metrics.Config

	// TLS configuration
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  10 * time.Second,
		IdleTimeout:   120 * time.Second,
		EnableDebug:   true,
		LoggerConfig:  logger.DefaultConfig(),
		MetricsConfig: metrics.DefaultConfig(),
		TLSEnabled:    false,
	}
}

// Server represents the HTTP server
type Server struct {
	cfg        Config
	httpServer *http.Server
	handler    *Handler
	logger     *logger.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
			NextProtos:   []string{"h2", "http/1.1"}, // Enable HTTP/2
		}
	}

	l, err := logger.New(cfg.LoggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsConfig.Enabled {
		m = metrics.New(cfg.MetricsConfig)
	}

	handler := NewHandler(l, m)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewMux(handler, m, cfg.EnableDebug),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			TLSConfig:    tlsConfig,
		},
		handler: handler,
		logger:  l,
	}, nil
}

// NewMux wires the routes. m may be nil, in which case /metrics is not served.
func NewMux(h *Handler, m *metrics.Metrics, enableDebug bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleClassify)
	mux.HandleFunc("/health", h.HandleHealth)
	if enableDebug {
		mux.HandleFunc("/debug", h.HandleDebug)
	}
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	return mux
}

// Handler returns the server's request handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server and blocks until an interrupt arrives
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		_ = s.logger.Close()
		return fmt.Errorf("failed to create TCP listener: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
// The server takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		protocol := "HTTP"
		if s.cfg.TLSEnabled {
			protocol = "HTTPS"
		}
		log.Printf("FizzBuzz server starting on %s (%s)", ln.Addr(), protocol)
		log.Printf("Endpoints: /?n=<int> (classify), /health (health check)")
		if s.cfg.EnableDebug {
			log.Printf("Debug endpoint enabled: /debug?n=<int>")
		}
		if s.cfg.MetricsConfig.Enabled {
			log.Printf("Metrics endpoint enabled: /metrics")
		}
		log.Printf("Logs: %s", s.logger.LogPath())

		var err error
		if s.cfg.TLSEnabled {
			log.Printf("TLS Certificate: %s", s.cfg.TLSCertFile)
			// Certificates are already loaded into TLSConfig
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			_ = s.logger.Close()
			return fmt.Errorf("server error: %w", err)
		}
		return s.logger.Close()
	case <-ctx.Done():
	}

	log.Println("Server shutting down...")
	if err := s.Close(); err != nil {
		return err
	}
	log.Println("Server stopped")
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := s.logger.Close(); err != nil {
		return fmt.Errorf("failed to close logger: %w", err)
	}
	return nil
}
