package dialect

import (
	"net"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/fault"
)

const (
	defaultMySQLPort = "3306"

	// name the storage TLS settings are registered under with the driver
	mysqlTLSName = "txkeeper"
)

// Server error numbers, see
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	erConCountError            = 1040
	erServerShutdown           = 1053
	erLockWaitTimeout          = 1205
	erLockDeadlock             = 1213
	erConnectionKilled         = 1927
	erClientInteractionTimeout = 4031
)

func newMySQL(st config.StorageType) *Dialect {
	return &Dialect{
		name:   st,
		driver: "mysql",
		tables: sq.Select("table_name").
			From("information_schema.tables").
			Where("table_schema = DATABASE()"),
		classify: classifyMySQL,
		dsn:      mysqlDSN,
		prepare:  registerMySQLTLS,
	}
}

func registerMySQLTLS(s config.Storage) error {
	if !s.TLS.Enabled() {
		return nil
	}

	tlsCfg, err := s.TLS.Config()
	if err != nil {
		return err
	}

	return errors.Wrap(mysql.RegisterTLSConfig(mysqlTLSName, tlsCfg), "failed to register TLS config")
}

func classifyMySQL(err error) (fault.Class, bool) {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return fault.ClassConnection, true
	}

	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return fault.ClassPermanent, false
	}

	switch myErr.Number {
	case erLockDeadlock, erLockWaitTimeout:
		return fault.ClassTransient, true
	case erConCountError, erServerShutdown, erConnectionKilled, erClientInteractionTimeout:
		return fault.ClassConnection, true
	}

	return fault.ClassPermanent, true
}

func mysqlDSN(s config.Storage) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = withDefaultPort(s.Address, defaultMySQLPort)
	cfg.DBName = s.Database
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	if s.TLS.Enabled() {
		cfg.TLSConfig = mysqlTLSName
	}

	if len(s.Properties) > 0 {
		cfg.Params = make(map[string]string, len(s.Properties))
		for k, v := range s.Properties {
			cfg.Params[k] = v
		}
	}

	return cfg.FormatDSN()
}

func withDefaultPort(addr, port string) string {
	if addr == "" {
		return net.JoinHostPort("localhost", port)
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		return net.JoinHostPort(addr, port)
	}

	return addr
}
