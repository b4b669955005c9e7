package config

import (
	"os"

	"github.com/pseudomuto/txkeeper/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Loads txkeeper.yaml (or $TXKEEPER_CONFIG) when present. Returns nil
	// otherwise so commands that don't need a database still work.
	func() (*Config, error) {
		path := os.Getenv("TXKEEPER_CONFIG")
		if path == "" {
			path = consts.ConfigFile
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
))
