package store

import (
	"context"
	"sync"
	"testing"

	"github.com/containerd/errdefs"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, DataKey, Entry{Payload: []byte("payload")}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.Get(ctx, DataKey)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got.Payload) != "payload" {
		t.Errorf("expected payload, got %s", got.Payload)
	}
}

func TestMemoryStore_MissIsNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "missing"); !errdefs.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestMemoryStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = s.Put(ctx, GenericKey("https://example.com/a"), Entry{Payload: []byte{byte(n)}})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Get(ctx, GenericKey("https://example.com/a"))
		}()
	}
	wg.Wait()

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("expected 1 key, got %d", len(keys))
	}
}
