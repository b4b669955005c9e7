package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// StorageType identifies the database backend.
	StorageType string

	// Storage holds the credentials and address of the target database.
	Storage struct {
		// Type selects the backend dialect (mysql, mariadb, postgres, sqlite, clickhouse)
		Type StorageType `yaml:"type"`

		// Address is host[:port], or the database file path for sqlite
		Address string `yaml:"address"`

		// Database is the schema/database name to connect to
		Database string `yaml:"database"`

		Username string `yaml:"username"`
		Password string `yaml:"password"`

		// Properties are appended to the driver DSN as-is
		Properties map[string]string `yaml:"properties,omitempty"`

		TLS TLS `yaml:"tls"`
	}

	// Pool configures the connection pool the sessions are drawn from.
	Pool struct {
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	}

	// Retry is the executor's retry policy.
	Retry struct {
		// MaxConnectionRetries bounds session acquisition retries per call
		MaxConnectionRetries int `yaml:"max_connection_retries"`

		// MaxTransactionRetries bounds transient fault retries per session
		MaxTransactionRetries int `yaml:"max_transaction_retries"`

		// ReconnectBackoff is the initial wait between reconnection attempts (0 disables waiting)
		ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
	}

	// Schema configures idempotent schema application.
	Schema struct {
		// File is the DDL file applied by the apply command
		File string `yaml:"file"`

		// TablePrefix replaces the {prefix} placeholder in every statement
		TablePrefix string `yaml:"table_prefix"`

		// CharsetFallbacks maps charset tokens to the replacement used when the
		// server rejects a batch with an unknown character set error
		CharsetFallbacks map[string]string `yaml:"charset_fallbacks,omitempty"`
	}

	// Config is the complete txkeeper configuration.
	Config struct {
		Storage Storage `yaml:"storage"`
		Pool    Pool    `yaml:"pool"`
		Retry   Retry   `yaml:"retry"`
		Schema  Schema  `yaml:"schema"`
	}
)

const (
	MySQL      StorageType = "mysql"
	MariaDB    StorageType = "mariadb"
	Postgres   StorageType = "postgres"
	SQLite     StorageType = "sqlite"
	ClickHouse StorageType = "clickhouse"
)

// ErrUnknownStorageType is returned for storage types no dialect supports.
var ErrUnknownStorageType = errors.New("unknown storage type")

// StorageTypes lists every supported backend.
func StorageTypes() []StorageType {
	return []StorageType{MySQL, MariaDB, Postgres, SQLite, ClickHouse}
}

// ParseStorageType matches name case-insensitively against the supported
// storage types, returning def when nothing matches.
func ParseStorageType(name string, def StorageType) StorageType {
	for _, st := range StorageTypes() {
		if strings.EqualFold(string(st), strings.TrimSpace(name)) {
			return st
		}
	}

	return def
}

// Defaults returns a configuration populated with the values from pkg/consts.
func Defaults() Config {
	return Config{
		Storage: Storage{Type: MySQL},
		Pool: Pool{
			MaxOpenConns:    consts.DefaultMaxOpenConns,
			MaxIdleConns:    consts.DefaultMaxIdleConns,
			ConnMaxLifetime: consts.DefaultConnMaxLifetime,
		},
		Retry: Retry{
			MaxConnectionRetries:  consts.DefaultMaxConnectionRetries,
			MaxTransactionRetries: consts.DefaultMaxTransactionRetries,
			ReconnectBackoff:      consts.DefaultReconnectBackoff,
		},
		Schema: Schema{
			CharsetFallbacks: consts.DefaultCharsetFallbacks(),
		},
	}
}

// UnmarshalYAML replaces the charset fallbacks only when the key is present,
// so an explicit empty map disables the fallback instead of merging into the
// defaults.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	type plain Schema

	out := plain(*s)
	out.CharsetFallbacks = nil
	if err := node.Decode(&out); err != nil {
		return err
	}

	if !hasKey(node, "charset_fallbacks") {
		out.CharsetFallbacks = s.CharsetFallbacks
	} else if out.CharsetFallbacks == nil {
		out.CharsetFallbacks = map[string]string{}
	}

	*s = Schema(out)
	return nil
}

func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}

	return false
}

// LoadConfig parses a configuration from the provided io.Reader.
//
// The YAML document is decoded on top of Defaults(), so any key that is
// omitted keeps its default while explicit values (including 0 retry counts)
// are honoured.
//
// Example:
//
//	yamlData := `
//	storage:
//	  type: mysql
//	  address: localhost:3306
//	  database: app
//	schema:
//	  file: db/schema.sql
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := Defaults()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigFile loads a configuration from the specified file path.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("txkeeper.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Validate normalizes the storage type and rejects impossible values.
func (c *Config) Validate() error {
	st := ParseStorageType(string(c.Storage.Type), "")
	if st == "" {
		return errors.Wrapf(ErrUnknownStorageType, "storage.type %q", c.Storage.Type)
	}
	c.Storage.Type = st

	if c.Retry.MaxConnectionRetries < 0 || c.Retry.MaxTransactionRetries < 0 {
		return errors.New("retry counts must not be negative")
	}

	if c.Retry.ReconnectBackoff < 0 {
		return errors.New("retry.reconnect_backoff must not be negative")
	}

	if (c.Storage.TLS.CertFile == "") != (c.Storage.TLS.KeyFile == "") {
		return errors.New("storage.tls.cert_file and storage.tls.key_file must be set together")
	}

	return nil
}
