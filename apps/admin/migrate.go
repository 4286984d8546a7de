package main

import (
	"github.com/spf13/cobra"
	"github.com/trezcool/goose"

	"github.com/trezcool/homeschool/fs"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run database migrations (up, up-by-one, up-to N, down, down-to N, redo, reset, status, version, create NAME, fix)",
		// goose parses the arguments
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, appfs.MigrationsDir, arguments...)
}
