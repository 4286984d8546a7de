package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) newResetPasswordCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset an account's password. The password is prompted next.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			if err = cli.resetPassword(cmd.Context(), email, pwd); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cli.out, "password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The account's email")
	return cmd
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	acc, err := cli.acctSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.acctSvc.ChangePassword(ctx, acc.ID, pwd)
	return err
}
