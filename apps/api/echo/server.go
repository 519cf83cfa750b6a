package echoapi

import (
	"context"
	"net/http"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/student"
)

type (
	ServerDeps struct {
		Conf             *core.Config
		Logger           core.Logger
		StudentSvc       *student.Service
		EncouragementSvc *encouragement.Service

		DisableReqLogs bool
		// SignalShutdown is called when a handler fails with a core shutdown error.
		SignalShutdown func()
	}

	Server struct {
		deps ServerDeps
		app  *echo.Echo
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		core.IsSet(deps.Logger, "Logger"),
		vala.IsNotNil(deps.StudentSvc, "StudentSvc"),
		vala.IsNotNil(deps.EncouragementSvc, "EncouragementSvc"),
	).CheckAndPanic()
	if deps.SignalShutdown == nil {
		deps.SignalShutdown = func() {}
	}

	s := &Server{deps: deps, app: echo.New()}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf.SecretKey))

	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.EncouragementSvc, s.deps.Logger)
	registerSweepAPI(v1, jwt, s.deps.EncouragementSvc)
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, letting outstanding requests finish until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
