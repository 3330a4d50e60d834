package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lensflow/lensflow/pkg/persistence"
	"github.com/lensflow/lensflow/pkg/persistence/file"
	"github.com/lensflow/lensflow/pkg/persistence/postgresql"
	"github.com/lensflow/lensflow/pkg/persistence/sqlite"
)

// NewPersistence picks a storage backend from the database URL scheme.
// Unrecognized schemes fall back to the file backend, treating the URL as
// a root directory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to set up PostgreSQL persistence: %w", err))
		}

		return p
	case strings.HasPrefix(databaseURL, "sqlite://"):
		p, err := sqlite.NewPersistence(logger, strings.TrimPrefix(databaseURL, "sqlite://"))
		if err != nil {
			panic(fmt.Errorf("failed to set up SQLite persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
