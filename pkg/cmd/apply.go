package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// apply returns the command that brings a database up to date with a schema
// file. Statements touching tables that already exist are skipped; the rest
// run in a single transaction through the executor.
//
// Example usage:
//
//	# Apply the schema file configured in txkeeper.yaml
//	txkeeper apply
//
//	# Apply another file
//	txkeeper apply --file db/extra.sql
//
//	# Show the statements that would run without touching the database
//	txkeeper apply --dry-run
func apply() *cli.Command {
	return &cli.Command{
		Name:   "apply",
		Usage:  "Apply a schema file to the configured database",
		Before: requireConfig,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "the schema file to apply",
				DefaultText: "schema.file from the config",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print pending statements instead of applying them",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(s)

			stmts, err := s.LoadSchemaFile(cmd.String("file"))
			if err != nil {
				return err
			}

			if cmd.Bool("dry-run") {
				pending, err := s.Applier().Plan(ctx, stmts)
				if err != nil {
					return err
				}

				printStatements(cmd.Writer, pending)
				fmt.Fprintf(cmd.Writer, "-- %d of %d statements pending\n", len(pending), len(stmts))
				return nil
			}

			applied, err := s.Applier().Apply(ctx, stmts)
			if err != nil {
				return err
			}

			printStatements(cmd.Writer, applied)
			fmt.Fprintf(cmd.Writer, "-- %d of %d statements applied\n", len(applied), len(stmts))
			return nil
		},
	}
}
