package storage

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/dialect"
	"github.com/pseudomuto/txkeeper/pkg/executor"
	"github.com/pseudomuto/txkeeper/pkg/schema"
	"github.com/pseudomuto/txkeeper/pkg/session"
)

type (
	// Storage is an opened database together with the executor and schema
	// applier bound to it.
	Storage struct {
		cfg      *config.Config
		dialect  *dialect.Dialect
		db       *sqlx.DB
		executor *executor.Executor
		applier  *schema.Applier
		logger   *slog.Logger
	}

	// Options contains the optional collaborators of Open.
	Options struct {
		// Logger defaults to slog.Default()
		Logger *slog.Logger

		// Registerer receives the executor metrics when set
		Registerer prometheus.Registerer
	}
)

// Open connects to the database described by cfg and verifies the connection
// by running an empty task through the executor, so startup gets the same
// connection retries as every other call.
//
// Example:
//
//	s, err := storage.Open(ctx, cfg, storage.Options{})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Executor().Run(ctx, func(tc *executor.TaskContext) error {
//		_, err := tc.Session().ExecContext(ctx, "DELETE FROM sessions WHERE expired = 1")
//		return err
//	})
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Storage, error) {
	if cfg == nil {
		return nil, errors.New("missing configuration")
	}

	d, err := dialect.For(cfg.Storage.Type)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := d.Prepare(cfg.Storage); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.DriverName(), d.DSN(cfg.Storage))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", d.Name())
	}

	db.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

	metrics := executor.NewMetrics()
	if opts.Registerer != nil {
		if err := metrics.Register(opts.Registerer); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	exec := executor.New(executor.Config{
		Provider:   session.NewSQLProvider(db, nil),
		Classifier: d,
		Retry:      cfg.Retry,
		Logger:     logger,
		Metrics:    metrics,
	})

	s := &Storage{
		cfg:      cfg,
		dialect:  d,
		db:       db,
		executor: exec,
		applier: schema.NewApplier(schema.ApplierConfig{
			Executor:         exec,
			Tables:           d,
			CharsetFallbacks: cfg.Schema.CharsetFallbacks,
			Logger:           logger,
		}),
		logger: logger,
	}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Connected to database", "type", d.Name(), "database", cfg.Storage.Database)
	return s, nil
}

// Ping acquires a session and runs an empty transaction on it.
func (s *Storage) Ping(ctx context.Context) error {
	return s.executor.Run(ctx, func(*executor.TaskContext) error { return nil })
}

func (s *Storage) Dialect() *dialect.Dialect {
	return s.dialect
}

func (s *Storage) DB() *sqlx.DB {
	return s.db
}

func (s *Storage) Executor() *executor.Executor {
	return s.executor
}

func (s *Storage) Applier() *schema.Applier {
	return s.applier
}

// Tables returns the tables that currently exist.
func (s *Storage) Tables(ctx context.Context) ([]string, error) {
	return s.applier.ExistingTables(ctx)
}

// LoadSchema reads r and classifies its statements, replacing the {prefix}
// placeholder with the configured table prefix.
func (s *Storage) LoadSchema(r io.Reader) ([]schema.Statement, error) {
	return schema.Load(r, schema.TablePrefix(s.cfg.Schema.TablePrefix))
}

// LoadSchemaFile is LoadSchema for a file path. An empty path uses the
// configured schema file.
func (s *Storage) LoadSchemaFile(path string) ([]schema.Statement, error) {
	if path == "" {
		path = s.cfg.Schema.File
	}

	if path == "" {
		return nil, errors.New("no schema file configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open schema file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return s.LoadSchema(f)
}

// Close releases the connection pool. Errors are logged and returned.
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close database", "err", err)
		return errors.Wrap(err, "failed to close database")
	}

	return nil
}
