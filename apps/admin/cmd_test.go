package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
	"github.com/trezcool/homeschool/fs"
	"github.com/trezcool/homeschool/services/email"
	"github.com/trezcool/homeschool/storage/database/inmem"
	"github.com/trezcool/homeschool/tests"
)

const pwd = "Cr3dit$Hours"

var (
	acctRepo    account.Repository
	stateRepo   policy.Repository
	studentRepo student.Repository
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger()
	validate, _ := testutil.NewValidator(t)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	// set up DB & repos
	db := inmemdb.Open()
	acctRepo = inmemdb.NewAccountRepository(db)
	stateRepo = inmemdb.NewStateRepository(db)
	studentRepo = inmemdb.NewStudentRepository(db)

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		acctSvc:    account.NewService(acctRepo, stateRepo, validate, mailSvc, logger, conf),
		stateSvc:   policy.NewService(stateRepo, validate),
		studentSvc: student.NewService(studentRepo, validate, mailSvc, logger),
		out:        out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol" for "admin"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var gotDir string
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		gotDir = dir
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "transcripts", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Equal(t, appfs.MigrationsDir, gotDir)
}

func Test_commandLine_addAccount(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()
	ohio, err := stateRepo.CreateState(ctx, policy.State{Name: "Ohio", CreditDefinition: policy.Local, HoursPerCredit: 100, MinCreditsRequired: 20})
	require.NoError(t, err)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"addaccount"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"addaccount", "--email", "jane@test.test"}, wantErr: errHelp},
		{
			name: "unknown state", args: []string{"addaccount", "--email", "jane@test.test", "--name", "Jane Doe", "--state", "Atlantis"},
			extra: extra{pwd: pwd}, wantErr: policy.ErrNotFound,
		},
		{
			name: "create", args: []string{"addaccount", "--email", "Jane@Test.test", "--name", "Jane Doe", "--state", "ohio"},
			extra: extra{pwd: pwd},
		},
		{
			name: "update password and grant admin", args: []string{"addaccount", "--email", "jane@test.test", "--admin"},
			extra: extra{pwd: "N3w-Sch00l-Year"},
		},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	acc, err := acctRepo.GetAccountByEmail(ctx, "jane@test.test")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", acc.Name)
	assert.Equal(t, ohio.ID, acc.StateID)
	assert.Equal(t, 100.0, acc.HoursPerCredit)
	assert.True(t, acc.IsAdmin)
	assert.NoError(t, acc.CheckPassword("N3w-Sch00l-Year"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	acc := testutil.CreateAccount(t, acctRepo, "Jane Doe", "jane@test.test", pwd, false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "--email", "lol@test.test"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "--email", "lol@test.test"}, extra: extra{pwd: pwd}, wantErr: account.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "--email", acc.Email}, extra: extra{pwd: "lol"}, wantErrStr: "password: password must contain at least 8 characters"},
		{name: "reset", args: []string{"resetpassword", "--email", "JANE@test.test"}, extra: extra{pwd: "N3w-Sch00l-Year"}},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	refreshed, err := acctRepo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("N3w-Sch00l-Year"))
}

func Test_commandLine_seedStates(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "seedstates"}))
	assert.Equal(t, "states: 7 created, 0 updated\n", out.String())

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "seedstates"}))
	assert.Equal(t, "states: 0 created, 7 updated\n", out.String())

	assert.Error(t, cli.run([]string{"admin", "seedstates", "--file", "/does/not/exist.yaml"}))

	states, err := stateRepo.QueryStates(context.Background())
	require.NoError(t, err)
	assert.Len(t, states, 7)
}

func Test_commandLine_transcript(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	cli, out := setup(t)
	ctx := context.Background()
	jane := testutil.CreateAccount(t, acctRepo, "Jane Doe", "jane@test.test", pwd, false,
		policy.CreditPolicy{CreditDefinition: policy.CarnegieUnit, HoursPerCredit: 1, MinCreditsRequired: 2})
	ada := testutil.CreateStudent(t, studentRepo, jane.ID, "Ada", "Lovelace", 9)

	_, err := cli.studentSvc.SubmitLog(ctx, student.NewLog{
		StudentID: ada.ID, SubjectName: "Math", Comment: "fractions", StudyTimeMinutes: 60, Percentage: testutil.Float(95),
	}, jane.CreditPolicy())
	require.NoError(t, err)
	_, _, err = cli.studentSvc.RegisterSubject(ctx, ada.ID, "Art")
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no args", args: []string{"transcript"}, wantErr: errHelp},
		{name: "unknown student", args: []string{"transcript", "--student", "lol"}, wantErr: student.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "transcript", "--student", ada.ID}))
	got := out.String()
	assert.True(t, strings.HasPrefix(got, "Transcript: Ada Lovelace (grade 9)\n"), got)
	assert.Contains(t, got, "95 (A)")
	assert.Contains(t, got, "Incomplete")
	assert.Contains(t, got, "Total Cumulative Credits: 1.00")
	assert.Contains(t, got, "1.00 credits short of the minimum")
}
