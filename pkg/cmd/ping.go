package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ping returns the command that checks connectivity. The check runs through
// the executor, so it retries according to the configured connection policy.
func ping() *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check that the configured database is reachable",
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(s)

			if err := s.Ping(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.Writer, "ok: %s\n", s.Dialect().Name())
			return nil
		},
	}
}
