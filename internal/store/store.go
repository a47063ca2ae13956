package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/containerd/errdefs"

	"github.com/greensidehq/greenside/internal/logger"
)

// Key namespaces. The data namespace holds exactly one entry (the tournament
// collection); static and generic entries are keyed by full request URL.
// Only the strategy responsible for a namespace may write to it.
const (
	DataKey       = "data/tournaments"
	StaticPrefix  = "static/"
	GenericPrefix = "generic/"
)

// StaticKey builds the static-resource key for a URL.
func StaticKey(url string) string {
	return StaticPrefix + url
}

// GenericKey builds the opportunistic-cache key for a URL.
func GenericKey(url string) string {
	return GenericPrefix + url
}

// Entry is one persisted payload with its metadata. StoredAt is kept for
// staleness checks even though no expiry policy currently acts on it.
type Entry struct {
	Payload     []byte `json:"payload"`
	ContentType string `json:"contentType,omitempty"`
	StoredAt    int64  `json:"storedAt"` // Unix timestamp in milliseconds
}

// Store is flat string-keyed durable persistence. A miss is reported as a
// wrapped errdefs.ErrNotFound; callers test it with errdefs.IsNotFound and
// must treat it as a normal outcome, not a failure.
//
// Implementations guarantee atomicity of a single key's Put. They do not
// guarantee (and callers must not rely on) any ordering across keys.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

func notFound(key string) error {
	return fmt.Errorf("store key %q: %w", key, errdefs.ErrNotFound)
}

// stampEntry fills StoredAt for entries the caller did not timestamp. Every
// backend's Put goes through it so entries carry a stored-at time no matter
// which backend persisted them.
func stampEntry(entry Entry) Entry {
	if entry.StoredAt == 0 {
		entry.StoredAt = time.Now().UnixMilli()
	}
	return entry
}

// CleanupNamespaces removes every key that does not belong to the current
// namespace set. It runs once at startup so entries written by older layouts
// do not linger forever.
func CleanupNamespaces(ctx context.Context, s Store) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	for _, key := range keys {
		if key == DataKey || strings.HasPrefix(key, StaticPrefix) || strings.HasPrefix(key, GenericPrefix) {
			continue
		}
		if err := s.Remove(ctx, key); err != nil && !errdefs.IsNotFound(err) {
			logger.WithComponent("store").Warnf("cleanup: remove %q failed: %v", key, err)
		} else {
			logger.WithComponent("store").Infof("cleanup: discarded stale key %q", key)
		}
	}

	return nil
}
