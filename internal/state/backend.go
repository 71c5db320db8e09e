// File: internal/state/backend.go
package state

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"lakehouse/internal/config"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Backend persists state. Save fails with ErrConflict when another writer
// saved in between this writer's Load and Save.
type Backend interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
	Describe() string
	Close() error
}

// Open builds the backend selected by the state.* configuration keys.
// credentialsFile is used for the gcs backend and may be empty.
func Open(ctx context.Context, cfg *config.Config, credentialsFile string, logger *slog.Logger) (Backend, error) {
	stateLogger := logger.With("backend", cfg.State.Backend)

	switch cfg.State.Backend {
	case "", "local":
		return NewLocalBackend(cfg.State.Path), nil
	case "gcs":
		var opts []option.ClientOption
		if credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
		client, err := gcpstorage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client for state: %w", err)
		}
		return NewGCSBackend(client, cfg.State.Bucket, cfg.State.Prefix, stateLogger), nil
	case "s3":
		return NewS3Backend(ctx, cfg.AWS, cfg.State.Bucket, cfg.State.Prefix, stateLogger)
	default:
		return nil, fmt.Errorf("unsupported state backend: %s. Supported backends are: local, gcs, s3", cfg.State.Backend)
	}
}

func objectKey(prefix string) string {
	if prefix == "" {
		return ObjectName
	}
	return path.Join(prefix, ObjectName)
}
