// Package cmd provides the CLI commands for txkeeper.
//
// Commands are plain constructors returning a *cli.Command and are collected
// into the root application through an fx value group (see Module).
//
// # Available Commands
//
//   - apply: Apply a schema file, skipping statements for existing tables
//   - tables: List the tables in the configured database
//   - ping: Check connectivity through the transactional executor
//
// # Global Options
//
//   - --config, -c: Config file (defaults to txkeeper.yaml or $TXKEEPER_CONFIG)
//   - --verbose, -v: Enable debug logging
//   - --help, -h: Display command help
package cmd
