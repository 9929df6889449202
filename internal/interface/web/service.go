package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type service struct {
	cfg        Config
	httpServer *http.Server
}

func NewService(
	cfg Config, lspSvc LspService, version string, sentryEnabled bool,
) (*service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}

	router := NewRouter(lspSvc, version, sentryEnabled)
	httpServer := &http.Server{
		Addr:              cfg.address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &service{cfg, httpServer}, nil
}

// NewRouter builds the gin engine serving the wallet api.
func NewRouter(lspSvc LspService, version string, sentryEnabled bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware())
	if sentryEnabled {
		router.Use(SentryMiddleware())
	}

	h := &handler{svc: lspSvc, version: version}
	router.GET("/health", h.health)
	router.GET("/service-status", h.serviceStatus)
	router.POST("/register", h.register)
	router.POST("/check-status", h.checkStatus)
	router.POST("/claim", h.claim)

	return router
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.cfg.address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.address(), err)
	}

	go func() {
		if err := s.httpServer.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
		}
	}()
	log.Infof("http server listening on %s", s.cfg.address())
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to shutdown http server")
	}
	log.Info("http server stopped")
}
