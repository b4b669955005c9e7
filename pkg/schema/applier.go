package schema

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/executor"
)

type (
	// TableLister reads the names of the tables that already exist.
	TableLister interface {
		ListTables(context.Context, sqlx.QueryerContext) ([]string, error)
	}

	// Applier applies the statements for tables that do not exist yet.
	//
	// Example usage:
	//
	//	applier := schema.NewApplier(schema.ApplierConfig{
	//		Executor: exec,
	//		Tables:   d,
	//	})
	//
	//	applied, err := applier.Apply(ctx, stmts)
	//	if err != nil {
	//		return err
	//	}
	//
	//	for _, s := range applied {
	//		fmt.Printf("%s %s\n", s.Kind, s.Table)
	//	}
	Applier struct {
		exec      *executor.Executor
		tables    TableLister
		fallbacks map[string]string
		logger    *slog.Logger
	}

	// ApplierConfig contains configuration options for creating a new Applier.
	ApplierConfig struct {
		// Executor runs the catalog query and the statements
		Executor *executor.Executor

		// Tables lists the existing tables (usually a *dialect.Dialect)
		Tables TableLister

		// CharsetFallbacks are the replacements used to retry a batch the
		// server rejected with an unknown character set error. Empty disables
		// the retry.
		CharsetFallbacks map[string]string

		// Logger defaults to slog.Default()
		Logger *slog.Logger
	}
)

// charsetDiagnostic is the server message that triggers the charset fallback.
const charsetDiagnostic = "unknown character set"

// NewApplier creates a new Applier with the provided configuration.
func NewApplier(cfg ApplierConfig) *Applier {
	a := &Applier{
		exec:      cfg.Executor,
		tables:    cfg.Tables,
		fallbacks: cfg.CharsetFallbacks,
		logger:    cfg.Logger,
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Plan returns the statements Apply would execute right now.
func (a *Applier) Plan(ctx context.Context, stmts []Statement) ([]Statement, error) {
	existing, err := a.ExistingTables(ctx)
	if err != nil {
		return nil, err
	}

	return Filter(stmts, existing), nil
}

// ExistingTables queries the live catalog for the current table names.
func (a *Applier) ExistingTables(ctx context.Context) ([]string, error) {
	return executor.Perform(ctx, a.exec, func(tc *executor.TaskContext) ([]string, error) {
		return a.tables.ListTables(ctx, tc.Session())
	})
}

// Apply executes the statements whose tables are missing, all in one
// transaction, and returns the statements that were executed.
//
// When the batch fails because the server does not know a character set, it
// is retried once with the configured charset fallbacks applied to every
// statement. Any other failure, or a failure of the retry, is returned as is.
func (a *Applier) Apply(ctx context.Context, stmts []Statement) ([]Statement, error) {
	pending, err := a.Plan(ctx, stmts)
	if err != nil {
		return nil, err
	}

	if len(pending) == 0 {
		a.logger.Info("Schema is up to date", "statements", len(stmts))
		return nil, nil
	}

	a.logger.Info("Applying schema", "statements", len(pending), "tables", Tables(pending))

	err = a.execute(ctx, pending)
	if err == nil {
		return pending, nil
	}

	if len(a.fallbacks) == 0 || !isCharsetError(err) {
		return nil, err
	}

	a.logger.Warn("Server rejected a character set, retrying with fallbacks", "fallbacks", a.fallbacks, "err", err)

	downgraded := rewrite(pending, CharsetFallback(a.fallbacks))
	if err := a.execute(ctx, downgraded); err != nil {
		return nil, err
	}

	return downgraded, nil
}

func (a *Applier) execute(ctx context.Context, stmts []Statement) error {
	return a.exec.Run(ctx, func(tc *executor.TaskContext) error {
		for i, s := range stmts {
			if _, err := tc.Session().ExecContext(ctx, s.Text); err != nil {
				return errors.Wrapf(err, "failed to apply statement %d of %d (%s %s)", i+1, len(stmts), s.Kind, s.Table)
			}
		}

		return nil
	})
}

func isCharsetError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), charsetDiagnostic)
}
