package schema_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/dialect"
	"github.com/pseudomuto/txkeeper/pkg/executor"
	"github.com/pseudomuto/txkeeper/pkg/fault"
	. "github.com/pseudomuto/txkeeper/pkg/schema"
	"github.com/pseudomuto/txkeeper/pkg/session"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const playersSchema = `
CREATE TABLE ` + "`players`" + ` (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE INDEX ix_players_name ON ` + "`players`" + ` (name);
CREATE TABLE ` + "`scores`" + ` (
  player_id INTEGER NOT NULL,
  score INTEGER NOT NULL DEFAULT 0
);
`

func newSQLiteApplier(t *testing.T) (*Applier, *sqlx.DB) {
	t.Helper()

	d, err := dialect.For(config.SQLite)
	require.NoError(t, err)

	db, err := sqlx.Open(d.DriverName(), filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	exec := executor.New(executor.Config{
		Provider:   session.NewSQLProvider(db, nil),
		Classifier: d,
		Retry:      config.Retry{MaxConnectionRetries: 1, MaxTransactionRetries: 1},
		Logger:     discard,
	})

	return NewApplier(ApplierConfig{Executor: exec, Tables: d, Logger: discard}), db
}

func TestApplierSQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("applies missing tables once", func(t *testing.T) {
		applier, _ := newSQLiteApplier(t)
		stmts := mustLoad(t, playersSchema)

		applied, err := applier.Apply(ctx, stmts)
		require.NoError(t, err)
		require.Equal(t, stmts, applied)

		tables, err := applier.ExistingTables(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"players", "scores"}, tables)

		applied, err = applier.Apply(ctx, stmts)
		require.NoError(t, err)
		require.Empty(t, applied)
	})

	t.Run("skips tables that already exist", func(t *testing.T) {
		applier, db := newSQLiteApplier(t)
		db.MustExec("CREATE TABLE players (id INTEGER PRIMARY KEY)")

		plan, err := applier.Plan(ctx, mustLoad(t, playersSchema))
		require.NoError(t, err)
		require.Equal(t, []string{"scores"}, tablesOf(plan))

		applied, err := applier.Apply(ctx, mustLoad(t, playersSchema))
		require.NoError(t, err)
		require.Equal(t, []string{"scores"}, tablesOf(applied))

		var indexes int
		require.NoError(t, db.Get(&indexes, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'ix_players_name'"))
		require.Zero(t, indexes)
	})

	t.Run("statements apply all or nothing", func(t *testing.T) {
		applier, _ := newSQLiteApplier(t)

		stmts := mustLoad(t, "CREATE TABLE `a` (id INTEGER);\nCREATE TABLE `b` (id INTEGER NOT A TYPE ,,);\n")
		_, err := applier.Apply(ctx, stmts)
		require.True(t, fault.IsKind(err, fault.KindTask))
		require.Contains(t, err.Error(), "failed to apply statement 2 of 2")

		tables, err := applier.ExistingTables(ctx)
		require.NoError(t, err)
		require.Empty(t, tables)
	})
}

type (
	fakeSession struct {
		sqlx.ExtContext
		reject func(string) error
		execs  []string
	}

	fakeTx struct {
		done bool
	}

	fakeProvider struct {
		session *fakeSession
		begins  int
	}

	staticTables []string
)

func (s *fakeSession) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	s.execs = append(s.execs, query)
	if err := s.reject(query); err != nil {
		return nil, err
	}

	return driverResult{}, nil
}

type driverResult struct{}

func (driverResult) LastInsertId() (int64, error) { return 0, nil }
func (driverResult) RowsAffected() (int64, error) { return 0, nil }

func (t *fakeTx) Commit() error   { t.done = true; return nil }
func (t *fakeTx) Rollback() error { t.done = true; return nil }
func (t *fakeTx) Active() bool    { return !t.done }

func (p *fakeProvider) Acquire(context.Context) (session.Session, error) { return p.session, nil }
func (p *fakeProvider) Release(session.Session) error                    { return nil }

func (p *fakeProvider) Begin(context.Context, session.Session) (session.Transaction, error) {
	p.begins++
	return &fakeTx{}, nil
}

func (t staticTables) ListTables(context.Context, sqlx.QueryerContext) ([]string, error) {
	return t, nil
}

func newFakeApplier(reject func(string) error, fallbacks map[string]string) (*Applier, *fakeProvider) {
	p := &fakeProvider{session: &fakeSession{reject: reject}}
	exec := executor.New(executor.Config{Provider: p, Logger: discard})

	return NewApplier(ApplierConfig{
		Executor:         exec,
		Tables:           staticTables{"existing"},
		CharsetFallbacks: fallbacks,
		Logger:           discard,
	}), p
}

func TestApplierCharsetFallback(t *testing.T) {
	ctx := context.Background()
	stmts := mustLoad(t, strings.Join([]string{
		"CREATE TABLE `existing` (id INT) DEFAULT CHARSET = utf8mb4;",
		"CREATE TABLE `a` (id INT) DEFAULT CHARSET = utf8mb4;",
		"CREATE TABLE `b` (name VARCHAR(8) CHARACTER SET utf8mb4);",
	}, "\n"))

	rejectUTF8MB4 := func(q string) error {
		if strings.Contains(q, "utf8mb4") {
			return errors.New("Error 1115 (42000): Unknown character set: 'utf8mb4'")
		}
		return nil
	}

	t.Run("retries once with the fallback charset", func(t *testing.T) {
		applier, p := newFakeApplier(rejectUTF8MB4, map[string]string{"utf8mb4": "utf8"})

		applied, err := applier.Apply(ctx, stmts)
		require.NoError(t, err)
		require.Equal(t, []string{
			"CREATE TABLE `a` (id INT) DEFAULT CHARSET = utf8",
			"CREATE TABLE `b` (name VARCHAR(8) CHARACTER SET utf8)",
		}, textsOf(applied))

		require.Equal(t, []string{
			"CREATE TABLE `a` (id INT) DEFAULT CHARSET = utf8mb4",
			"CREATE TABLE `a` (id INT) DEFAULT CHARSET = utf8",
			"CREATE TABLE `b` (name VARCHAR(8) CHARACTER SET utf8)",
		}, p.session.execs)

		// catalog query, first batch, retried batch
		require.Equal(t, 3, p.begins)
	})

	t.Run("a second failure propagates unmodified", func(t *testing.T) {
		second := errors.New("Error 1115 (42000): Unknown character set: 'utf8'")
		calls := 0
		reject := func(string) error {
			calls++
			if calls == 1 {
				return errors.New("Error 1115 (42000): Unknown character set: 'utf8mb4'")
			}
			return second
		}

		applier, p := newFakeApplier(reject, map[string]string{"utf8mb4": "utf8"})

		applied, err := applier.Apply(ctx, stmts)
		require.Nil(t, applied)
		require.ErrorIs(t, err, second)
		require.True(t, fault.IsKind(err, fault.KindTask))
		require.Equal(t, 3, p.begins)
		require.Len(t, p.session.execs, 2)
	})

	t.Run("other failures are not retried", func(t *testing.T) {
		boom := errors.New("Error 1050 (42S01): Table 'a' already exists")
		applier, p := newFakeApplier(func(string) error { return boom }, map[string]string{"utf8mb4": "utf8"})

		_, err := applier.Apply(ctx, stmts)
		require.ErrorIs(t, err, boom)
		require.Equal(t, 2, p.begins)
	})

	t.Run("no fallbacks disables the retry", func(t *testing.T) {
		applier, p := newFakeApplier(rejectUTF8MB4, nil)

		_, err := applier.Apply(ctx, stmts)
		require.Error(t, err)
		require.Contains(t, err.Error(), "Unknown character set")
		require.Equal(t, 2, p.begins)
	})

	t.Run("nothing to apply is a no-op", func(t *testing.T) {
		applier, p := newFakeApplier(rejectUTF8MB4, map[string]string{"utf8mb4": "utf8"})

		applied, err := applier.Apply(ctx, stmts[:1])
		require.NoError(t, err)
		require.Empty(t, applied)
		require.Empty(t, p.session.execs)
		require.Equal(t, 1, p.begins)
	})
}

func textsOf(stmts []Statement) []string {
	texts := make([]string, len(stmts))
	for i, s := range stmts {
		texts[i] = s.Text
	}

	return texts
}
