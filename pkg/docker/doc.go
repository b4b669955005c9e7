// Package docker runs a temporary ClickHouse server for integration tests.
//
// The container is started through the testcontainers ClickHouse module and
// exposes its connection details as a config.Storage, so a test can open it
// with the same code path the CLI uses:
//
//	container := docker.New(docker.Options{Version: "25.7"})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	st, err := container.Storage(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := config.Defaults()
//	cfg.Storage = st
//
//	s, err := storage.Open(ctx, &cfg, storage.Options{})
package docker
