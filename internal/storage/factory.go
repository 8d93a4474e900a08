package storage

import (
	"context"
	"fmt"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/config"
)

// Open returns the backend selected by STORAGE_BACKEND.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case "postgres":
		pg, err := NewPostgresStorage(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case "firestore":
		fs, err := NewFirestoreStorage(ctx, cfg.FirestoreProject, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "file":
		fs, err := NewFileStorage(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
