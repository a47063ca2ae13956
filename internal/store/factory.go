package store

import (
	"fmt"

	"github.com/greensidehq/greenside/internal/config"
)

const (
	StoreTypeFile   = "file"
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
)

// NewStoreFromConfig creates a Store for the configured backend.
// The file store is the default.
func NewStoreFromConfig(cfg config.DataConfig) (Store, error) {
	switch cfg.StoreType {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeRedis:
		return NewRedisStore(cfg.RedisAddr), nil
	case StoreTypeFile, "":
		return NewFileStore(cfg.FilePath)
	default:
		return nil, fmt.Errorf("unknown store type: %s (supported: %s, %s, %s)", cfg.StoreType, StoreTypeFile, StoreTypeMemory, StoreTypeRedis)
	}
}
