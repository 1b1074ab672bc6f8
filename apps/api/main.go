package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/lazoapp/lazo/apps/api/echo"
	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/document"
	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/message"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/report"
	"github.com/lazoapp/lazo/core/task"
	"github.com/lazoapp/lazo/core/user"
	calendarsvc "github.com/lazoapp/lazo/services/calendar"
	emailsvc "github.com/lazoapp/lazo/services/email"
	logsvc "github.com/lazoapp/lazo/services/logger"
	"github.com/lazoapp/lazo/storage/database"
	sqlxrepos "github.com/lazoapp/lazo/storage/database/sqlx"
	"github.com/lazoapp/lazo/storage/files"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var calSvc core.CalendarService
	if conf.GoogleCalendar.Enabled {
		if calSvc, err = calendarsvc.NewGoogleService(context.Background(), conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up calendar service: %v", err), err)
		}
	} else {
		calSvc = calendarsvc.NewDummyService()
	}

	var storage core.FileStorage
	if conf.FileStorage.Backend == "s3" {
		if storage, err = files.NewS3Storage(context.Background(), conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up S3 storage: %v", err), err)
		}
	} else {
		if storage, err = files.NewLocalStorage(conf.FileStorage.Root); err != nil {
			logger.Fatal(fmt.Sprintf("setting up local storage: %v", err), err)
		}
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	relSvc := relationship.NewService(sqlxrepos.NewRelationshipRepository(db), usrSvc)
	meetingSvc := meeting.NewService(sqlxrepos.NewMeetingRepository(db), relSvc, usrSvc, calSvc, mailSvc, logger)
	taskSvc := task.NewService(sqlxrepos.NewTaskRepository(db), relSvc)
	docSvc := document.NewService(sqlxrepos.NewDocumentRepository(db), storage, relSvc, conf, logger)
	msgSvc := message.NewService(sqlxrepos.NewMessageRepository(db), relSvc)
	reportSvc := report.NewService(sqlxrepos.NewReportRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			RelationshipSvc: relSvc,
			MeetingSvc:      meetingSvc,
			TaskSvc:         taskSvc,
			DocumentSvc:     docSvc,
			MessageSvc:      msgSvc,
			ReportSvc:       reportSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
