package consts

import (
	"os"
	"time"
)

const (
	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the default configuration file name
	ConfigFile = "txkeeper.yaml"

	// TablePrefixPlaceholder is replaced by the configured table prefix in schema statements
	TablePrefixPlaceholder = "{prefix}"
)

const (
	// DefaultMaxConnectionRetries is how many times a failed session acquisition is retried per call
	DefaultMaxConnectionRetries = 3

	// DefaultMaxTransactionRetries is how many times a transient fault is retried per session
	DefaultMaxTransactionRetries = 3

	// DefaultReconnectBackoff is the initial wait between reconnection attempts
	DefaultReconnectBackoff = 100 * time.Millisecond

	// DefaultMaxOpenConns mirrors the original pool size default
	DefaultMaxOpenConns = 10

	// DefaultMaxIdleConns keeps the pool warm between calls
	DefaultMaxIdleConns = 10

	// DefaultConnMaxLifetime is safely below MySQL's default wait_timeout
	DefaultConnMaxLifetime = 30 * time.Minute
)

// DefaultCharsetFallbacks maps a charset a server may not know to the
// narrower equivalent used when a schema batch fails with an unknown
// character set error.
func DefaultCharsetFallbacks() map[string]string {
	return map[string]string{"utf8mb4": "utf8"}
}
