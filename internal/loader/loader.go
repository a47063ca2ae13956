package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/containerd/errdefs"
	"golang.org/x/sync/singleflight"

	"github.com/greensidehq/greenside/internal/connectivity"
	"github.com/greensidehq/greenside/internal/fetch"
	"github.com/greensidehq/greenside/internal/logger"
	"github.com/greensidehq/greenside/internal/record"
	"github.com/greensidehq/greenside/internal/store"
)

// ErrNoData is returned when neither network nor cache can produce a
// collection. It is fatal to the operation, never to the process: the caller
// shows an error state with a retry affordance.
var ErrNoData = errors.New("no data available")

// Loader owns the in-memory tournament collection for the process lifetime.
// It is the application-facing entry point: cache-first Load for startup,
// network-first Refresh on demand, Append for locally submitted records.
type Loader struct {
	store    store.Store
	fetcher  fetch.Fetcher
	dataURL  string
	notifier *connectivity.Notifier

	mu         sync.RWMutex
	collection record.Collection

	// collapses concurrent Refresh calls into one upstream fetch
	refreshGroup singleflight.Group
}

// refreshOutcome carries a singleflight refresh result to all waiters.
type refreshOutcome struct {
	collection record.Collection
	degraded   bool
}

// New creates a loader. The collection starts empty and is replaced
// wholesale on every successful load or refresh.
func New(st store.Store, fetcher fetch.Fetcher, dataURL string, notifier *connectivity.Notifier) *Loader {
	return &Loader{
		store:      st,
		fetcher:    fetcher,
		dataURL:    dataURL,
		notifier:   notifier,
		collection: record.Collection{},
	}
}

// Load obtains the collection, preferring the durable store outright to
// minimize startup latency and bandwidth. Only a store miss triggers a
// network fetch. With no network and no cache it fails with ErrNoData.
func (l *Loader) Load(ctx context.Context) (record.Collection, error) {
	log := logger.WithComponent("loader")

	entry, err := l.store.Get(ctx, store.DataKey)
	if err == nil {
		collection, decodeErr := decodeCollection(entry.Payload)
		if decodeErr == nil {
			l.replace(collection)
			log.Infof("loaded %d records from cache", len(collection))
			return l.Snapshot()
		}
		log.Warnf("cached collection is unreadable, falling back to network: %v", decodeErr)
	} else if !errdefs.IsNotFound(err) {
		log.Errorf("cache read failed, falling back to network: %v", err)
	}

	collection, fetchErr := l.fetchAndPersist(ctx)
	if fetchErr != nil {
		l.notifier.Publish(connectivity.StateOffline)
		return nil, fmt.Errorf("%w: %v", ErrNoData, fetchErr)
	}
	l.notifier.Publish(connectivity.StateOnline)
	log.Infof("loaded %d records from network", len(collection))
	return l.Snapshot()
}

// Refresh always prefers the network (data-class semantics): fetch, write
// through, replace the collection. On exhausted retries it falls back to the
// durable store and marks the result degraded. Concurrent refreshes share
// one fetch.
func (l *Loader) Refresh(ctx context.Context) (record.Collection, bool, error) {
	value, err, _ := l.refreshGroup.Do("refresh", func() (interface{}, error) {
		return l.refreshOnce(ctx)
	})
	if err != nil {
		return nil, false, err
	}
	outcome := value.(refreshOutcome)
	return outcome.collection, outcome.degraded, nil
}

func (l *Loader) refreshOnce(ctx context.Context) (refreshOutcome, error) {
	log := logger.WithComponent("loader")
	l.notifier.Publish(connectivity.StateReconnecting)

	collection, err := l.fetchAndPersist(ctx)
	if err == nil {
		l.notifier.Publish(connectivity.StateOnline)
		log.Infof("refreshed %d records from network", len(collection))
		snap, snapErr := l.Snapshot()
		if snapErr != nil {
			return refreshOutcome{}, snapErr
		}
		return refreshOutcome{collection: snap}, nil
	}
	log.Warnf("refresh fetch failed, falling back to cache: %v", err)

	entry, getErr := l.store.Get(ctx, store.DataKey)
	if getErr == nil {
		if cached, decodeErr := decodeCollection(entry.Payload); decodeErr == nil {
			l.replace(cached)
			l.notifier.Publish(connectivity.StateOffline)
			snap, snapErr := l.Snapshot()
			if snapErr != nil {
				return refreshOutcome{}, snapErr
			}
			return refreshOutcome{collection: snap, degraded: true}, nil
		}
	} else if !errdefs.IsNotFound(getErr) {
		log.Errorf("cache read failed during refresh: %v", getErr)
	}

	l.notifier.Publish(connectivity.StateOffline)
	return refreshOutcome{}, fmt.Errorf("%w: %v", ErrNoData, err)
}

// Append validates and adds a locally submitted record, persisting through
// the same write-through path as fetched data so it survives a restart
// identically. No dedup check: a duplicate player/date/trophy entry is
// accepted as-is.
func (l *Loader) Append(ctx context.Context, rec record.Record) (record.Collection, error) {
	if err := record.Validate(rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}

	l.mu.Lock()
	l.collection = append(l.collection, rec)
	snapshot, err := record.Clone(l.collection)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	l.persistBestEffort(ctx, snapshot)
	return snapshot, nil
}

// Snapshot returns a deep copy of the current collection; callers treat it
// as read-only and it shares nothing with the loader's copy.
func (l *Loader) Snapshot() (record.Collection, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return record.Clone(l.collection)
}

// ReloadFromStore re-reads the data namespace and replaces the collection if
// the cached copy differs. Wired to the file store watcher so external edits
// to the store file show up without a restart.
func (l *Loader) ReloadFromStore(ctx context.Context) {
	log := logger.WithComponent("loader")

	entry, err := l.store.Get(ctx, store.DataKey)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			log.Warnf("reload read failed: %v", err)
		}
		return
	}
	collection, err := decodeCollection(entry.Payload)
	if err != nil {
		log.Warnf("reload decode failed: %v", err)
		return
	}

	l.mu.Lock()
	changed := !record.Equal(l.collection, collection)
	if changed {
		l.collection = collection
	}
	l.mu.Unlock()

	if changed {
		log.Infof("collection reloaded from store (%d records)", len(collection))
	}
}

// fetchAndPersist fetches the upstream collection, replaces the in-memory
// copy and writes through to the data namespace.
func (l *Loader) fetchAndPersist(ctx context.Context) (record.Collection, error) {
	resp, err := l.fetcher.Do(ctx, fetch.Request{Method: http.MethodGet, URL: l.dataURL})
	if err != nil {
		return nil, err
	}

	collection, err := decodeCollection(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode upstream payload: %w", err)
	}

	l.replace(collection)
	l.persistBestEffort(ctx, collection)
	return collection, nil
}

// persistBestEffort writes the collection through to the store. A rejected
// write costs durability only; it is logged and never propagated.
func (l *Loader) persistBestEffort(ctx context.Context, collection record.Collection) {
	payload, err := json.Marshal(collection)
	if err != nil {
		logger.WithComponent("loader").Errorf("marshal collection: %v", err)
		return
	}
	entry := store.Entry{Payload: payload, ContentType: "application/json"}
	if err := l.store.Put(ctx, store.DataKey, entry); err != nil {
		logger.WithComponent("loader").Warnf("cache write failed: %v", err)
	}
}

func (l *Loader) replace(collection record.Collection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.collection = collection
}

func decodeCollection(payload []byte) (record.Collection, error) {
	var collection record.Collection
	if err := json.Unmarshal(payload, &collection); err != nil {
		return nil, err
	}
	if collection == nil {
		collection = record.Collection{}
	}
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}
	return collection, nil
}
