package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/homeschool/apps/api/echo"
	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
	appfs "github.com/trezcool/homeschool/fs"
	emailsvc "github.com/trezcool/homeschool/services/email"
	logsvc "github.com/trezcool/homeschool/services/logger"
	"github.com/trezcool/homeschool/storage/database"
	sqlxrepos "github.com/trezcool/homeschool/storage/database/sqlx"
)

// TODO: rate limit the un-authed account endpoints
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

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator, err := newValidator()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up validators: %v", err), err)
	}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	stateRepo := sqlxrepos.NewStateRepository(db)
	acctSvc := account.NewService(sqlxrepos.NewAccountRepository(db), stateRepo, validate, mailSvc, logger, conf)
	stateSvc := policy.NewService(stateRepo, validate)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), validate, mailSvc, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			AccountSvc: acctSvc,
			StateSvc:   stateSvc,
			StudentSvc: studentSvc,
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
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	policy.InitValidators(validate, translator)

	pwds, err := appfs.FS.Open(appfs.CommonPasswords)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pwds.Close() }()
	account.InitValidators(validate, translator, pwds)
	return validate, translator, nil
}
