package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(apply, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(ping, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(tables, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
