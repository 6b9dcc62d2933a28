package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/visitor"
	"github.com/trezcool/schoolhub/services/directory"
	"github.com/trezcool/schoolhub/services/metrics"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		VisitorSvc  *visitor.Service
		Directory   *directory.Client
		Metrics     *metrics.Metrics                // optional
		HealthCheck func(ctx context.Context) error // optional
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		ServerDeps
		app       *echo.Echo
		jwtConfig middleware.JWTConfig
		errors    chan error
		shutdown  chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if s.Metrics != nil {
		s.Directory = s.Directory.WithObserver(s.Metrics.ObserveDirectoryRequest)
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.jwtConfig = middleware.JWTConfig{
		SigningKey:    []byte(s.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/", s.home)
	if s.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	s.app.GET("/health", s.health)

	v1 := s.app.Group("/v1")
	v1.POST("/visitors", s.createVisitor)

	// every other endpoint acts on behalf of a visitor
	vg := v1.Group("", middleware.JWTWithConfig(s.jwtConfig), s.visitorMiddleware)
	vg.POST("/token-refresh", s.refreshToken)

	registerAuthAPI(vg, s)
	registerPasswordResetAPI(vg, s)
	registerCompareAPI(vg, s)
	registerSchoolAPI(vg, s)
	registerRouteAPI(vg, s)
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.Conf.AppName+" API!")
}

func (s *server) health(ctx echo.Context) error {
	if s.HealthCheck != nil {
		if err := s.HealthCheck(ctx.Request().Context()); err != nil {
			s.Logger.Error("health check failed", err)
			return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
