// Package dialect captures the per-backend knowledge txkeeper needs: which
// database/sql driver to open, how to build its DSN, how to list the tables
// that already exist, and how to sort driver errors into retry classes.
//
// # Supported Backends
//
//   - mysql / mariadb (github.com/go-sql-driver/mysql)
//   - postgres (github.com/jackc/pgx/v5/stdlib)
//   - sqlite (modernc.org/sqlite)
//   - clickhouse (github.com/ClickHouse/clickhouse-go/v2)
//
// # Fault Classification
//
// Every Dialect is a fault.Classifier. Classification runs in three steps:
//
//  1. Context cancellation and deadline errors are permanent, retrying them
//     cannot succeed.
//  2. The backend specific rules run next. Deadlocks, lock wait timeouts and
//     serialization failures are transient; server side connection loss is a
//     connection fault.
//  3. Anything left is checked against the generic connection failures
//     (driver.ErrBadConn, sql.ErrConnDone, net.Error, unexpected EOF and the
//     usual socket error messages) and is permanent otherwise.
//
// # TLS
//
// storage.tls is translated per backend. MySQL registers the loaded
// *tls.Config with the driver under a fixed name, PostgreSQL passes the files
// as ssl* DSN parameters and ClickHouse can only switch TLS on (secure and
// skip_verify). SQLite rejects it.
//
// # Usage
//
//	d, err := dialect.For(config.Postgres)
//	if err != nil {
//		return err
//	}
//
//	if err := d.Prepare(cfg.Storage); err != nil {
//		return err
//	}
//
//	db, err := sqlx.Open(d.DriverName(), d.DSN(cfg.Storage))
//	if err != nil {
//		return err
//	}
//
//	tables, err := d.ListTables(ctx, db)
package dialect
