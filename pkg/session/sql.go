package session

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// SQLProvider is a Provider backed by a database/sql connection pool.
	//
	// Pool sizing, lifetimes and timeouts are configured on the *sqlx.DB by
	// the caller; SQLProvider only checks connections out of it.
	SQLProvider struct {
		db     *sqlx.DB
		txOpts *sql.TxOptions
	}

	sqlSession struct {
		conn     *sqlx.Conn
		bindType int
		driver   string
		tx       *sqlTx
	}

	sqlTx struct {
		tx   *sqlx.Tx
		done bool
	}

	queryer interface {
		QueryContext(context.Context, string, ...any) (*sql.Rows, error)
		QueryxContext(context.Context, string, ...any) (*sqlx.Rows, error)
		QueryRowxContext(context.Context, string, ...any) *sqlx.Row
		ExecContext(context.Context, string, ...any) (sql.Result, error)
	}
)

// ErrForeignSession is returned when a session that was not created by an
// SQLProvider is passed back to it.
var ErrForeignSession = errors.New("session was not acquired from this provider")

// NewSQLProvider creates a Provider over the given pool. txOpts may be nil to
// use the driver's default isolation level.
func NewSQLProvider(db *sqlx.DB, txOpts *sql.TxOptions) *SQLProvider {
	return &SQLProvider{db: db, txOpts: txOpts}
}

// DB returns the underlying pool.
func (p *SQLProvider) DB() *sqlx.DB {
	return p.db
}

func (p *SQLProvider) Acquire(ctx context.Context) (Session, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check out connection")
	}

	// Ping so a dead pooled connection surfaces here rather than inside the task.
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping connection")
	}

	return &sqlSession{
		conn:     conn,
		bindType: sqlx.BindType(p.db.DriverName()),
		driver:   p.db.DriverName(),
	}, nil
}

func (p *SQLProvider) Release(s Session) error {
	ss, ok := s.(*sqlSession)
	if !ok {
		return ErrForeignSession
	}

	if ss.tx != nil && ss.tx.Active() {
		_ = ss.tx.Rollback()
	}
	ss.tx = nil

	if err := ss.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return errors.Wrap(err, "failed to release connection")
	}

	return nil
}

func (p *SQLProvider) Begin(ctx context.Context, s Session) (Transaction, error) {
	ss, ok := s.(*sqlSession)
	if !ok {
		return nil, ErrForeignSession
	}

	if ss.tx != nil && ss.tx.Active() {
		return nil, errors.New("session already has an active transaction")
	}

	tx, err := ss.conn.BeginTxx(ctx, p.txOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	ss.tx = &sqlTx{tx: tx}
	return ss.tx, nil
}

func (t *sqlTx) Commit() error {
	t.done = true
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	t.done = true
	return t.tx.Rollback()
}

func (t *sqlTx) Active() bool {
	return !t.done
}

// target routes statements to the open transaction, if any.
func (s *sqlSession) target() queryer {
	if s.tx != nil && s.tx.Active() {
		return s.tx.tx
	}

	return s.conn
}

func (s *sqlSession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.target().QueryContext(ctx, query, args...)
}

func (s *sqlSession) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return s.target().QueryxContext(ctx, query, args...)
}

func (s *sqlSession) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return s.target().QueryRowxContext(ctx, query, args...)
}

func (s *sqlSession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.target().ExecContext(ctx, query, args...)
}

func (s *sqlSession) DriverName() string {
	return s.driver
}

func (s *sqlSession) Rebind(query string) string {
	return sqlx.Rebind(s.bindType, query)
}

func (s *sqlSession) BindNamed(query string, arg any) (string, []any, error) {
	return sqlx.BindNamed(s.bindType, query, arg)
}
