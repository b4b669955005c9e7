package main

import (
	"context"
	"os"

	"github.com/pseudomuto/txkeeper/pkg/cmd"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	app := fx.New(
		fx.Supply(
			os.Args,
			&cmd.Version{
				Version:   version,
				Commit:    commit,
				Timestamp: date,
			},
		),
		fx.Provide(func(lc fx.Lifecycle) context.Context {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.StopHook(cancel))
			return ctx
		}),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		config.Module,
		cmd.Module,
	)

	app.Run()
}
