package docs

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	"counterbot/pkg/config"
	"counterbot/pkg/logger"
	"counterbot/pkg/version"
)

// Server serves the docs API.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	catalog    *Catalog
	logger     *logger.Logger
	addr       string
}

// NewServer creates a docs server.
func NewServer(cfg config.DocsConfig, catalog *Catalog, log *logger.Logger) *Server {
	s := &Server{
		catalog: catalog,
		logger:  log,
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))

	e.GET("/docs/plugins", s.handleListPlugins)
	e.GET("/docs/plugins/:pluginName", s.handleGetPlugin)
	e.GET("/docs/version", s.handleVersion)

	s.echo = e
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the server in the background.
func (s *Server) Start() error {
	s.logger.Info("Docs server starting", zap.String("addr", s.addr))

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.httpServer = &http.Server{Handler: s.echo}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Docs server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Docs server stopping")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleListPlugins(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.catalog.Plugins())
}

func (s *Server) handleGetPlugin(c *echo.Context) error {
	detail, ok := s.catalog.Plugin(c.Param("pluginName"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not Found"})
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.GetInfo())
}
