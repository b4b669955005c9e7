package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// tables returns the command that lists the tables apply treats as existing.
func tables() *cli.Command {
	return &cli.Command{
		Name:   "tables",
		Usage:  "List the tables in the configured database",
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(s)

			names, err := s.Tables(ctx)
			if err != nil {
				return err
			}

			for _, name := range names {
				fmt.Fprintln(cmd.Writer, name)
			}

			return nil
		},
	}
}
