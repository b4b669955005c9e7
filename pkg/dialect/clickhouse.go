package dialect

import (
	"net/url"

	"github.com/ClickHouse/clickhouse-go/v2"
	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/fault"
)

const (
	defaultClickHousePort = "9000"

	// DEADLOCK_AVOIDED
	chDeadlockAvoided = 473
)

func newClickHouse() *Dialect {
	return &Dialect{
		name:   config.ClickHouse,
		driver: "clickhouse",
		tables: sq.Select("name").
			From("system.tables").
			Where("database = currentDatabase()"),
		classify: classifyClickHouse,
		dsn:      clickhouseDSN,
		prepare:  checkClickHouseTLS,
	}
}

// The DSN can only switch TLS on, so certificate files have nowhere to go.
func checkClickHouseTLS(s config.Storage) error {
	if s.TLS.CAFile != "" || s.TLS.CertFile != "" {
		return errors.New("clickhouse supports storage.tls.insecure_skip_verify only; certificate files are not supported")
	}

	return nil
}

func classifyClickHouse(err error) (fault.Class, bool) {
	var ex *clickhouse.Exception
	if !errors.As(err, &ex) {
		return fault.ClassPermanent, false
	}

	if ex.Code == chDeadlockAvoided {
		return fault.ClassTransient, true
	}

	return fault.ClassPermanent, true
}

func clickhouseDSN(s config.Storage) string {
	q := url.Values{}
	if s.TLS.Enabled() {
		q.Set("secure", "true")
		if s.TLS.InsecureSkipVerify {
			q.Set("skip_verify", "true")
		}
	}

	return urlDSN("clickhouse", withDefaultPort(s.Address, defaultClickHousePort), s, q)
}
