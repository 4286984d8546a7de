package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
	"github.com/trezcool/homeschool/fs"
	"github.com/trezcool/homeschool/services/email"
	"github.com/trezcool/homeschool/services/logger"
	"github.com/trezcool/homeschool/storage/database"
	"github.com/trezcool/homeschool/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	policy.InitValidators(validate, translator)
	pwds, err := appfs.FS.Open(appfs.CommonPasswords)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening common passwords: %v", err), err)
	}
	account.InitValidators(validate, translator, pwds)
	_ = pwds.Close()

	mailSvc := emailsvc.NewConsoleService(conf)
	stateRepo := sqlxrepos.NewStateRepository(db)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		acctSvc:    account.NewService(sqlxrepos.NewAccountRepository(db), stateRepo, validate, mailSvc, logger, conf),
		stateSvc:   policy.NewService(stateRepo, validate),
		studentSvc: student.NewService(sqlxrepos.NewStudentRepository(db), validate, mailSvc, logger),
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "\nerror: %+v\n", err)
		}
		os.Exit(1)
	}
}
