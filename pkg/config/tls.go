package config

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// TLS holds the certificates used for encrypted (optionally mutual TLS)
// connections to the storage backend.
type TLS struct {
	// CAFile verifies the server certificate. Empty means the system pool.
	CAFile string `yaml:"ca_file"`

	// CertFile and KeyFile form the client certificate for mTLS
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Enabled reports whether any TLS setting was configured.
func (t TLS) Enabled() bool {
	return t.CAFile != "" || t.CertFile != "" || t.KeyFile != "" || t.InsecureSkipVerify
}

// Config loads the configured files into a *tls.Config.
//
// Example usage:
//
//	tlsCfg, err := cfg.Storage.TLS.Config()
//	if err != nil {
//		return err
//	}
func (t TLS) Config() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.InsecureSkipVerify, // nolint: gosec
	}

	if t.CertFile != "" || t.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load certfile/keyfile")
		}

		cfg.Certificates = []tls.Certificate{cert}
	}

	if t.CAFile != "" {
		caCert, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load CA file")
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.Errorf("no certificates found in CA file: %s", t.CAFile)
		}

		cfg.RootCAs = pool
	}

	return cfg, nil
}
