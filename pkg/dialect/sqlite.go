package dialect

import (
	"net/url"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/fault"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func newSQLite() *Dialect {
	return &Dialect{
		name:   config.SQLite,
		driver: "sqlite",
		tables: sq.Select("name").
			From("sqlite_master").
			Where(sq.Eq{"type": "table"}).
			Where(sq.NotLike{"name": "sqlite_%"}),
		classify: classifySQLite,
		dsn:      sqliteDSN,
		prepare: func(s config.Storage) error {
			if s.TLS.Enabled() {
				return errors.New("sqlite does not support storage.tls")
			}

			return nil
		},
	}
}

func classifySQLite(err error) (fault.Class, bool) {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return fault.ClassPermanent, false
	}

	// Extended result codes carry the primary code in the low byte.
	switch liteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fault.ClassTransient, true
	}

	return fault.ClassPermanent, true
}

// sqliteDSN uses the address as the database file, falling back to the
// database name.
func sqliteDSN(s config.Storage) string {
	path := s.Address
	if path == "" {
		path = s.Database
	}

	if len(s.Properties) == 0 {
		return path
	}

	q := url.Values{}
	for k, v := range s.Properties {
		q.Set(k, v)
	}

	return path + "?" + q.Encode()
}
