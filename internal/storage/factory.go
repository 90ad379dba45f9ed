package storage

import (
	"strings"

	"github.com/timmy/memeverse/internal/config"
)

// New creates the ImageStore described by cfg.
// Parameters:
//   - cfg: storage configuration; Type "memory" keeps objects in process.
//
// Returns:
//   - ImageStore: initialized store.
//   - error: non-nil if the S3 client cannot be created.
func New(cfg *config.StorageConfig) (ImageStore, error) {
	kind := Kind(cfg.Type)
	if kind == "" {
		kind = detectKind(cfg.Endpoint)
	}

	if kind == KindMemory {
		return NewMemoryStore(cfg.PublicURL), nil
	}

	return NewS3Store(&S3Config{
		Kind:      kind,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
}

func detectKind(endpoint string) Kind {
	endpoint = strings.ToLower(endpoint)

	switch {
	case endpoint == "":
		return KindMemory
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return KindR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return KindS3
	default:
		return KindS3Compatible
	}
}
