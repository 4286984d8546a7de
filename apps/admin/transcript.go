package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/homeschool/core/student"
)

func (cli *commandLine) newTranscriptCommand() *cobra.Command {
	var studentID string

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print a student's transcript under their owner's credit policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if studentID == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.printTranscript(cmd.Context(), studentID)
		},
	}
	cmd.Flags().StringVar(&studentID, "student", "", "The student's ID")
	return cmd
}

func (cli *commandLine) printTranscript(ctx context.Context, studentID string) error {
	st, err := cli.studentSvc.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}
	owner, err := cli.acctSvc.GetByID(ctx, st.OwnerID)
	if err != nil {
		return errors.Wrap(err, "finding owner")
	}
	t, err := cli.studentSvc.Transcript(ctx, st.ID, owner.CreditPolicy())
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	lines := t.Lines()
	_, _ = bold.Fprintln(cli.out, lines[0])
	for _, line := range lines[1:] {
		switch {
		case strings.Contains(line, student.ResultFail):
			_, _ = red.Fprintln(cli.out, line)
		case strings.Contains(line, student.ResultIncomplete):
			_, _ = yellow.Fprintln(cli.out, line)
		default:
			_, _ = fmt.Fprintln(cli.out, line)
		}
	}

	if t.MinCreditsRequired > 0 {
		if t.MeetsMinimum {
			_, _ = green.Fprintln(cli.out, "Meets the minimum credits required")
		} else {
			_, _ = red.Fprintf(cli.out, "%.2f credits short of the minimum\n", t.MinCreditsRequired-t.TotalCredits)
		}
	}
	return nil
}
