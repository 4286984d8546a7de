package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/fs"
)

func (cli *commandLine) newSeedStatesCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seedstates",
		Short: "Create or update the states' credit policies from a YAML file (defaults to the bundled seed)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.ReadCloser
			var err error
			if file == "" {
				r, err = appfs.FS.Open(appfs.StatesSeed)
			} else {
				r, err = os.Open(file)
			}
			if err != nil {
				return errors.Wrap(err, "opening seed")
			}
			defer func() { _ = r.Close() }()
			return cli.seedStates(cmd.Context(), r)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a states YAML file")
	return cmd
}

func (cli *commandLine) seedStates(ctx context.Context, r io.Reader) error {
	states, err := policy.LoadSeed(r)
	if err != nil {
		return err
	}
	created, updated, err := cli.stateSvc.Seed(ctx, states)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "states: %d created, %d updated\n", created, updated)
	return nil
}
