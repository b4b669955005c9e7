package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/consts"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

// currentConfig is the configuration used by subcommands. It starts as the
// config provided by fx and is replaced when --config points elsewhere.
var currentConfig *config.Config

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Config     *config.Config `optional:"true"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates and executes the txkeeper CLI application with the supplied
// arguments once the fx application starts, then shuts fx down with an exit
// code reflecting the outcome.
//
// Global Flags:
//   - --config, -c: Config file (defaults to txkeeper.yaml, or $TXKEEPER_CONFIG)
//   - --verbose, -v: Enable debug logging
//
// Example usage:
//
//	# Apply the schema file named in txkeeper.yaml
//	txkeeper apply
//
//	# Use another config and show what would change
//	txkeeper --config prod.yaml apply --dry-run
func Run(p Params) {
	currentConfig = p.Config
	app := newApp(p.Version, p.Commands)

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
			return
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

func newApp(v *Version, commands []*cli.Command) *cli.Command {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", v.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", v.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", v.Timestamp)
	}

	return &cli.Command{
		Name:  "txkeeper",
		Usage: "Transactional schema management for SQL databases",
		Description: `txkeeper applies idempotent schema files to MySQL, MariaDB, PostgreSQL,
SQLite and ClickHouse. Statements for tables that already exist are skipped,
and every change runs through a retrying transactional executor.`,
		Version: v.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the txkeeper config file",
				Sources: cli.EnvVars("TXKEEPER_CONFIG"),
				Value:   consts.ConfigFile,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			// Config was already loaded from the default location.
			if !cmd.IsSet("config") {
				return ctx, nil
			}

			cfg, err := config.LoadConfigFile(cmd.String("config"))
			if err != nil {
				return ctx, err
			}

			currentConfig = cfg
			return ctx, nil
		},
		Commands: commands,
	}
}

func requireConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if currentConfig == nil {
		return ctx, errors.Errorf("%s not found", consts.ConfigFile)
	}

	return ctx, nil
}
