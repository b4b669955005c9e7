package docker

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultClickHousePort is the native protocol port used by the clickhouse driver
	DefaultClickHousePort = "9000/tcp"

	// DefaultClickHouseHTTPPort is probed to decide when the server is ready
	DefaultClickHouseHTTPPort = "8123/tcp"
)

type (
	// Options configures the throwaway ClickHouse server.
	Options struct {
		// Version is the ClickHouse image tag (default: latest)
		Version string

		// Database is created on startup (default: txkeeper)
		Database string

		// Username defaults to "default"
		Username string

		Password string
	}

	// Container manages a ClickHouse container used as a txkeeper storage
	// backend in integration tests.
	Container struct {
		options   Options
		container *clickhouse.ClickHouseContainer
	}
)

// New creates a new container with the given options. Nothing is started
// until Start is called.
//
// Example:
//
//	container := docker.New(docker.Options{Version: "25.7"})
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
//
//	st, err := container.Storage(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := config.Defaults()
//	cfg.Storage = st
func New(opts Options) *Container {
	if opts.Version == "" {
		opts.Version = "latest"
	}

	if opts.Database == "" {
		opts.Database = "txkeeper"
	}

	if opts.Username == "" {
		opts.Username = "default"
	}

	return &Container{options: opts}
}

// Start starts the ClickHouse container and waits until it answers HTTP
// requests.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	container, err := clickhouse.Run(ctx,
		fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", c.options.Version),
		clickhouse.WithUsername(c.options.Username),
		clickhouse.WithPassword(c.options.Password),
		clickhouse.WithDatabase(c.options.Database),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.
				NewHTTPStrategy("/").
				WithPort(nat.Port(DefaultClickHouseHTTPPort)).
				WithStatusCodeMatcher(func(status int) bool {
					return status == 200
				}),
		),
	)
	if err != nil {
		return errors.Wrap(err, "failed to start ClickHouse container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the container.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop ClickHouse container")
	}

	return nil
}

// Storage returns the storage settings that connect to the running container.
func (c *Container) Storage(ctx context.Context) (config.Storage, error) {
	if c.container == nil {
		return config.Storage{}, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return config.Storage{}, errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, nat.Port(DefaultClickHousePort))
	if err != nil {
		return config.Storage{}, errors.Wrap(err, "failed to get container port")
	}

	return config.Storage{
		Type:     config.ClickHouse,
		Address:  net.JoinHostPort(host, port.Port()),
		Database: c.options.Database,
		Username: c.options.Username,
		Password: c.options.Password,
	}, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}
