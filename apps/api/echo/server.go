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

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/document"
	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/message"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/report"
	"github.com/lazoapp/lazo/core/task"
	"github.com/lazoapp/lazo/core/user"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		UserSvc         user.Service
		RelationshipSvc relationship.Service
		MeetingSvc      meeting.Service
		TaskSvc         task.Service
		DocumentSvc     document.Service
		MessageSvc      message.Service
		ReportSvc       report.Service
		Validate        *validator.Validate
		Translator      ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	appJWTConfig.SigningKey = []byte(deps.Conf.SecretKey)
	appName = deps.Conf.AppName
	jwtExpirationDelta = deps.Conf.Server.JWTExpirationDelta
	jwtRefreshExpirationDelta = deps.Conf.Server.JWTRefreshExpirationDelta

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate)
	registerRelationshipAPI(v1, jwt, s.deps.RelationshipSvc, s.deps.UserSvc, s.deps.Validate)
	registerMeetingAPI(v1, jwt, s.deps.MeetingSvc, s.deps.RelationshipSvc, s.deps.UserSvc, s.deps.Validate)
	registerTaskAPI(v1, jwt, s.deps.TaskSvc, s.deps.RelationshipSvc, s.deps.UserSvc, s.deps.Validate)
	registerDocumentAPI(v1, jwt, s.deps.DocumentSvc, s.deps.RelationshipSvc, s.deps.UserSvc)
	registerMessageAPI(v1, jwt, s.deps.MessageSvc, s.deps.UserSvc, s.deps.Validate)
	registerReportAPI(v1, jwt, s.deps.ReportSvc, s.deps.UserSvc)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errs }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() { s.shutdown <- syscall.SIGTERM }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Lazo API!")
}
