package storage_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/consts"
	"github.com/pseudomuto/txkeeper/pkg/executor"
	"github.com/pseudomuto/txkeeper/pkg/fault"
	. "github.com/pseudomuto/txkeeper/pkg/storage"
	"github.com/stretchr/testify/require"
)

const schemaSQL = "-- players\n" +
	"CREATE TABLE `{prefix}players` (\n" +
	"  id INTEGER PRIMARY KEY,\n" +
	"  name TEXT NOT NULL\n" +
	");\n" +
	"CREATE INDEX ix_name ON `{prefix}players` (name);\n"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sqliteConfig(t *testing.T, path string) *config.Config {
	t.Helper()

	yaml := "storage:\n  type: sqlite\n" +
		"retry:\n  max_connection_retries: 0\n  reconnect_backoff: 0s\n" +
		"schema:\n  table_prefix: dc_\n"

	cfg, err := config.LoadConfig(strings.NewReader(yaml))
	require.NoError(t, err)

	cfg.Storage.Address = path
	return cfg
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a schema end to end", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		s, err := Open(ctx, sqliteConfig(t, filepath.Join(t.TempDir(), "app.db")), Options{Logger: discard, Registerer: reg})
		require.NoError(t, err)
		defer func() { require.NoError(t, s.Close()) }()

		require.Equal(t, config.SQLite, s.Dialect().Name())

		stmts, err := s.LoadSchema(strings.NewReader(schemaSQL))
		require.NoError(t, err)
		require.Len(t, stmts, 2)
		require.Equal(t, "dc_players", stmts[0].Table)

		applied, err := s.Applier().Apply(ctx, stmts)
		require.NoError(t, err)
		require.Len(t, applied, 2)

		tables, err := s.Tables(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"dc_players"}, tables)

		var indexes int
		require.NoError(t, s.DB().Get(&indexes, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'ix_name'"))
		require.Equal(t, 1, indexes)

		count, err := testutil.GatherAndCount(reg, "txkeeper_executor_commits_total")
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("queued actions run after commit", func(t *testing.T) {
		s, err := Open(ctx, sqliteConfig(t, filepath.Join(t.TempDir(), "app.db")), Options{Logger: discard})
		require.NoError(t, err)
		defer func() { _ = s.Close() }()

		s.DB().MustExec("CREATE TABLE players (name TEXT)")

		var seen int
		n, err := executor.Perform(ctx, s.Executor(), func(tc *executor.TaskContext) (int64, error) {
			res, err := tc.Session().ExecContext(ctx, "INSERT INTO players (name) VALUES (?), (?)", "ada", "grace")
			if err != nil {
				return 0, err
			}

			tc.Queue(func(ctx context.Context) error {
				return s.DB().GetContext(ctx, &seen, "SELECT COUNT(*) FROM players")
			})

			return res.RowsAffected()
		})
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
		require.Equal(t, 2, seen)
	})

	t.Run("schema files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "schema.sql")
		require.NoError(t, os.WriteFile(path, []byte(schemaSQL), consts.ModeFile))

		cfg := sqliteConfig(t, filepath.Join(dir, "app.db"))
		cfg.Schema.File = path

		s, err := Open(ctx, cfg, Options{Logger: discard})
		require.NoError(t, err)
		defer func() { _ = s.Close() }()

		stmts, err := s.LoadSchemaFile("")
		require.NoError(t, err)
		require.Len(t, stmts, 2)

		_, err = s.LoadSchemaFile(filepath.Join(dir, "missing.sql"))
		require.Error(t, err)
	})

	t.Run("unreachable database", func(t *testing.T) {
		cfg := sqliteConfig(t, filepath.Join(t.TempDir(), "missing", "dir", "app.db"))

		_, err := Open(ctx, cfg, Options{Logger: discard})
		require.True(t, fault.IsKind(err, fault.KindConnection))
	})

	t.Run("tls is rejected before connecting", func(t *testing.T) {
		cfg := sqliteConfig(t, filepath.Join(t.TempDir(), "app.db"))
		cfg.Storage.TLS = config.TLS{InsecureSkipVerify: true}

		_, err := Open(ctx, cfg, Options{Logger: discard})
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not support storage.tls")
	})

	t.Run("unknown storage type", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Storage.Type = "oracle"

		_, err := Open(ctx, &cfg, Options{Logger: discard})
		require.ErrorIs(t, err, config.ErrUnknownStorageType)
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := Open(ctx, nil, Options{})
		require.Error(t, err)
	})
}
