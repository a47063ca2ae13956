package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/greensidehq/greenside/internal/logger"
)

// document is the on-disk shape of the file store.
type document struct {
	Metadata documentMetadata `json:"metadata"`
	Entries  map[string]Entry `json:"entries"`
}

type documentMetadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// FileStore keeps all entries in memory and writes the whole document to a
// JSON file on every mutation, using a temp file + rename so readers never
// observe a partial write. A failed disk write leaves the in-memory entry in
// place; callers treat persistence as best-effort.
type FileStore struct {
	path string
	dir  string
	base string

	mu         sync.RWMutex
	entries    map[string]Entry
	lastUpdate int64
}

// NewFileStore opens (or initializes) the store backed by the given path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &FileStore{path: path, dir: dir, base: base, entries: map[string]Entry{}}
	if err := s.loadFromDisk(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// No file yet; start empty, the first Put creates it.
	}

	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, notFound(key)
	}
	return entry, nil
}

func (s *FileStore) Put(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = stampEntry(entry)
	s.lastUpdate = time.Now().UnixMilli()

	// The in-memory write above already took effect; a failed flush only
	// costs durability, not correctness of the running process.
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return notFound(key)
	}
	delete(s.entries, key)
	s.lastUpdate = time.Now().UnixMilli()

	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}

// LastUpdate returns the timestamp of the most recent mutation.
func (s *FileStore) LastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// persistLocked writes the document atomically. Caller must hold the lock.
func (s *FileStore) persistLocked() error {
	doc := document{
		Metadata: documentMetadata{LastUpdate: s.lastUpdate},
		Entries:  s.entries,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, s.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}

func (s *FileStore) loadFromDisk() error {
	file, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer file.Close()

	var doc document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]Entry{}
	}

	s.mu.Lock()
	s.entries = doc.Entries
	s.lastUpdate = doc.Metadata.LastUpdate
	s.mu.Unlock()

	return nil
}

// StartWatcher reloads the store when the backing file changes on disk and
// then invokes onReload. It watches the parent directory (not the file) so
// atomic replace sequences (temp+rename) are still observed. Events are
// filtered by basename and debounced to avoid double reloads on
// write+chmod/rename cycles. Cancel the context to stop the goroutine.
func (s *FileStore) StartWatcher(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	log := logger.WithComponent("store")

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				s.reloadIfNewer(onReload)
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != s.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// reloadIfNewer replaces the in-memory map from disk when the disk document
// is newer than what this process last wrote.
func (s *FileStore) reloadIfNewer(onReload func()) {
	log := logger.WithComponent("store")

	file, err := os.Open(s.path)
	if err != nil {
		log.Warnf("watch reload failed: %v", err)
		return
	}
	defer file.Close()

	var doc document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		log.Warnf("watch reload failed: %v", err)
		return
	}
	if doc.Entries == nil {
		doc.Entries = map[string]Entry{}
	}

	s.mu.Lock()
	if doc.Metadata.LastUpdate <= s.lastUpdate {
		s.mu.Unlock()
		log.Debugf("disk version is not newer than memory, skipping reload")
		return
	}
	s.entries = doc.Entries
	s.lastUpdate = doc.Metadata.LastUpdate
	s.mu.Unlock()

	log.Info("store reloaded from newer disk version")
	if onReload != nil {
		onReload()
	}
}
