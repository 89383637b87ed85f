package app

import (
	"context"
	"fmt"

	"github.com/dev-tams/snapvault/internal/config"
	"github.com/dev-tams/snapvault/internal/storage"
	"github.com/dev-tams/snapvault/internal/storage/local"
	s3store "github.com/dev-tams/snapvault/internal/storage/s3"
)

// StoreFromConfig builds the configured storage backend.
func StoreFromConfig(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	st := cfg.Storage

	switch st.Type {
	case "local":
		if st.LocalPath == "" {
			return nil, fmt.Errorf("storage: LOCAL_STORAGE_PATH is required")
		}
		return local.New("local", st.LocalPath, st.Subfolder), nil

	case "s3":
		s, err := s3store.New(ctx, s3store.Options{
			Name:           "s3",
			Bucket:         st.Bucket,
			Region:         st.Region,
			Endpoint:       st.Endpoint,
			ForcePathStyle: st.ForcePathStyle,
			Subfolder:      st.Subfolder,
			AccessKey:      st.AccessKey,
			SecretKey:      st.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("storage: unknown type %q", st.Type)
	}
}
