package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
)

func (cli *commandLine) newAddAccountCommand() *cobra.Command {
	var name, email, state string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "addaccount",
		Short: "Create an account, or update the password of an existing one. The password is prompted next.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			acc, err := cli.addAccount(cmd.Context(), name, email, state, pwd, isAdmin)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "account %s (%s) saved\n", acc.Email, acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The account's email")
	cmd.Flags().StringVar(&name, "name", "", "The account's name (new accounts only)")
	cmd.Flags().StringVar(&state, "state", "", "The name of the state whose credit policy applies (new accounts only)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant admin rights")
	return cmd
}

// addAccount updates or creates an account.Account
func (cli *commandLine) addAccount(ctx context.Context, name, email, state, pwd string, isAdmin bool) (account.Account, error) {
	email = core.CleanString(email, true /* lower */)

	acc, err := cli.acctSvc.GetByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		if acc, err = cli.acctSvc.ChangePassword(ctx, acc.ID, pwd); err != nil {
			return account.Account{}, err
		}
		if isAdmin && !acc.IsAdmin {
			return cli.acctSvc.SetAdmin(ctx, acc.ID, true)
		}
		return acc, nil
	case account.ErrNotFound:
	default:
		return account.Account{}, errors.Wrap(err, "finding account by email")
	}

	na := account.NewAccount{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		IsAdmin:         isAdmin,
	}
	if state != "" {
		st, err := cli.stateSvc.GetByName(ctx, state)
		if err != nil {
			return account.Account{}, errors.Wrapf(err, "finding state %q", state)
		}
		na.StateID = st.ID
	}
	return cli.acctSvc.Create(ctx, na)
}
