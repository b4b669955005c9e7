package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/fault"
)

type (
	// Dialect describes a single database backend.
	Dialect struct {
		name     config.StorageType
		driver   string
		tables   sq.SelectBuilder
		classify func(error) (fault.Class, bool)
		dsn      func(config.Storage) string
		prepare  func(config.Storage) error
	}
)

// connection failures reported only through the error text
var connectionMessages = []string{
	"broken pipe",
	"connection reset by peer",
	"connection refused",
	"conn closed",
	"bad connection",
}

// For returns the dialect for the given storage type.
func For(st config.StorageType) (*Dialect, error) {
	switch st {
	case config.MySQL, config.MariaDB:
		return newMySQL(st), nil
	case config.Postgres:
		return newPostgres(), nil
	case config.SQLite:
		return newSQLite(), nil
	case config.ClickHouse:
		return newClickHouse(), nil
	}

	return nil, errors.Wrapf(config.ErrUnknownStorageType, "no dialect for %q", st)
}

// Name returns the storage type this dialect serves.
func (d *Dialect) Name() config.StorageType {
	return d.name
}

// DriverName returns the database/sql driver name to pass to sqlx.Open.
func (d *Dialect) DriverName() string {
	return d.driver
}

// DSN builds the driver specific data source name from the storage settings.
func (d *Dialect) DSN(s config.Storage) string {
	return d.dsn(s)
}

// Prepare registers whatever driver state the DSN refers to, such as a named
// TLS config. Call it before opening the DSN.
func (d *Dialect) Prepare(s config.Storage) error {
	if d.prepare == nil {
		return nil
	}

	return d.prepare(s)
}

// Classify implements fault.Classifier.
func (d *Dialect) Classify(err error) fault.Class {
	if err == nil {
		return fault.ClassPermanent
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fault.ClassPermanent
	}

	if d.classify != nil {
		if class, ok := d.classify(err); ok {
			return class
		}
	}

	if isConnectionError(err) {
		return fault.ClassConnection
	}

	return fault.ClassPermanent
}

// ListTables returns the sorted, lower-cased names of the tables in the connected
// database (or schema, for postgres).
func (d *Dialect) ListTables(ctx context.Context, q sqlx.QueryerContext) ([]string, error) {
	query, args, err := d.tables.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build table listing query")
	}

	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}

		tables = append(tables, strings.ToLower(name))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read table names")
	}

	slices.Sort(tables)
	return tables, nil
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range connectionMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}

	return false
}
