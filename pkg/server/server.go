package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/apiresponses"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/contact"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/metrics"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/system"
)

const (
	// MaxBodyBytes caps the contact request body.
	MaxBodyBytes = 64 << 10

	DefaultListenAddress = ":8080"
	DefaultContactPath   = "/api/contact"

	ShutdownTimeout = 15 * time.Second
)

// ContactHandler answers platform-neutral contact requests.
type ContactHandler interface {
	Handle(ctx context.Context, req contact.Request) apiresponses.Response
}

type Server struct {
	gin     *gin.Engine
	config  config.Server
	contact ContactHandler
	log     *zap.SugaredLogger
}

func NewServer(log *zap.Logger, cfg config.Server, handler ContactHandler, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ContactPath == "" {
		cfg.ContactPath = DefaultContactPath
	}

	s := &Server{
		gin:     gin.New(),
		config:  cfg,
		contact: handler,
		log:     log.Sugar().Named("server"),
	}

	if err := s.gin.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		s.log.Warnw("Ignoring invalid trusted proxies", "proxies", cfg.TrustedProxies, "error", err)
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.gin.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		system.RequestID(log.Sugar()),
	)

	s.gin.Any(cfg.ContactPath, s.handleContact)
	s.gin.GET("/healthz", s.healthz)
	s.gin.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	if cfg.StaticDir != "" {
		s.gin.NoRoute(ServeSite("/", cfg.StaticDir))
	} else {
		s.gin.NoRoute(notFound)
	}

	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l (TLS when a certificate and key are
// configured) and shuts down gracefully once ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.gin,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: the contact response waits on the SMTP exchange,
		// which carries its own deadline.
	}

	useTLS := s.config.TLSCertFile != "" && s.config.TLSKeyFile != ""
	errCh := make(chan error, 1)
	go func() {
		if useTLS {
			errCh <- srv.ServeTLS(l, s.config.TLSCertFile, s.config.TLSKeyFile)
			return
		}
		errCh <- srv.Serve(l)
	}()
	s.log.Infow("Listening", "address", l.Addr().String(), "tls", useTLS, "contactPath", s.config.ContactPath)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleContact(c *gin.Context) {
	reqLog := system.GetReqLogger(c, s.log)

	req := contact.Request{
		Method:  c.Request.Method,
		Headers: flattenHeaders(c.Request.Header),
	}
	// Only POST carries a submission; other methods are dispatched without
	// touching the body so preflight and 405 answers ignore its size.
	if c.Request.Method == http.MethodPost && c.Request.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reqLog.Infow("Rejected oversized contact request", "limit", tooLarge.Limit)
				apiresponses.Write(c, apiresponses.BodyTooLarge())
				return
			}
			reqLog.Infow("Failed to read contact request body", "error", err)
			apiresponses.Write(c, apiresponses.MalformedBody())
			return
		}
		req.Body = string(body)
	}

	apiresponses.Write(c, s.contact.Handle(c.Request.Context(), req))
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, apiresponses.APIError{Error: "Not found"})
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ",")
	}
	return out
}
