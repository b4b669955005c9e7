package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/schema"
	"github.com/pseudomuto/txkeeper/pkg/storage"
)

// openStorage connects to the database described by the current config.
// Callers must Close the returned storage.
func openStorage(ctx context.Context) (*storage.Storage, error) {
	s, err := storage.Open(ctx, currentConfig, storage.Options{Logger: slog.Default()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open storage")
	}

	return s, nil
}

func closeStorage(s *storage.Storage) {
	if err := s.Close(); err != nil {
		slog.Warn("Failed to close storage", "err", err)
	}
}

func printStatements(w io.Writer, stmts []schema.Statement) {
	for _, stmt := range stmts {
		fmt.Fprintf(w, "-- %s %s\n%s;\n", stmt.Kind, stmt.Table, stmt.Text)
	}
}
