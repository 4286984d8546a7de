package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	acctSvc    *account.Service
	stateSvc   *policy.Service
	studentSvc *student.Service
	out        io.Writer
}

func (cli *commandLine) run(args []string) error {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Homeschool administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.SetArgs(args[1:])
	root.AddCommand(
		cli.newMigrateCommand(),
		cli.newAddAccountCommand(),
		cli.newResetPasswordCommand(),
		cli.newSeedStatesCommand(),
		cli.newTranscriptCommand(),
	)
	return root.Execute()
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
