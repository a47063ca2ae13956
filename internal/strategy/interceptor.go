package strategy

import (
	"context"
	"net/http"

	"github.com/containerd/errdefs"
	"golang.org/x/sync/singleflight"

	"github.com/greensidehq/greenside/internal/fetch"
	"github.com/greensidehq/greenside/internal/logger"
	"github.com/greensidehq/greenside/internal/store"
)

// Source identifies where a result came from, so a degraded (cached or
// synthesized) answer is never silently presented as fresh.
type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
	SourceOffline Source = "offline"
)

// Result is the outcome of routing one request through a strategy.
type Result struct {
	*fetch.Response
	Source Source
	Class  Class
}

// Interceptor is the explicit request-to-response function all outbound
// requests flow through. Each request evolves through its own strategy state
// machine; the only shared state is the durable store and the transport.
type Interceptor struct {
	router   Router
	fetcher  fetch.Fetcher
	store    store.Store
	shellURL string

	// collapses concurrent network fills for the same static key
	group singleflight.Group
}

// NewInterceptor wires the classifier, fetcher and durable store together.
// shellURL is the absolute URL of the application shell page.
func NewInterceptor(router Router, fetcher fetch.Fetcher, st store.Store, shellURL string) *Interceptor {
	return &Interceptor{
		router:   router,
		fetcher:  fetcher,
		store:    st,
		shellURL: shellURL,
	}
}

// Handle classifies the request and applies the matching strategy. It always
// returns a well-formed result: the offline responder is the last rung of
// every ladder.
func (i *Interceptor) Handle(ctx context.Context, req fetch.Request) *Result {
	class := i.router.Classify(req)
	switch class {
	case ClassData:
		return i.networkFirst(ctx, req)
	case ClassStatic:
		return i.cacheFirst(ctx, req)
	case ClassNavigation:
		return i.navigation(ctx, req)
	default:
		return i.generic(ctx, req)
	}
}

// networkFirst serves the data class: fresh network wins, cache is the
// fallback, offline placeholder the last resort. Successful fetches are
// written through to the data namespace (last write wins).
func (i *Interceptor) networkFirst(ctx context.Context, req fetch.Request) *Result {
	log := logger.WithComponent("strategy")

	resp, err := i.fetcher.Do(ctx, req)
	if err == nil {
		i.putBestEffort(ctx, store.DataKey, resp)
		return &Result{Response: resp, Source: SourceNetwork, Class: ClassData}
	}
	log.Warnf("data fetch failed, falling back to cache: %v", err)

	entry, getErr := i.store.Get(ctx, store.DataKey)
	if getErr == nil {
		return &Result{Response: entryResponse(entry), Source: SourceCache, Class: ClassData}
	}
	if !errdefs.IsNotFound(getErr) {
		log.Errorf("data cache read failed: %v", getErr)
	}

	return &Result{Response: OfflineResponse(req, ClassData), Source: SourceOffline, Class: ClassData}
}

// cacheFirst serves static assets: a hit returns immediately, favoring
// latency over freshness. Misses are fetched once per key (singleflight) and
// stored under the static namespace.
func (i *Interceptor) cacheFirst(ctx context.Context, req fetch.Request) *Result {
	log := logger.WithComponent("strategy")
	key := store.StaticKey(req.URL)

	entry, err := i.store.Get(ctx, key)
	if err == nil {
		return &Result{Response: entryResponse(entry), Source: SourceCache, Class: ClassStatic}
	}
	if !errdefs.IsNotFound(err) {
		log.Errorf("static cache read failed: %v", err)
	}

	value, fetchErr, _ := i.group.Do(key, func() (interface{}, error) {
		resp, err := i.fetcher.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		i.putBestEffort(ctx, key, resp)
		return resp, nil
	})
	if fetchErr == nil {
		return &Result{Response: value.(*fetch.Response), Source: SourceNetwork, Class: ClassStatic}
	}
	log.Warnf("static fetch failed: %v", fetchErr)

	return &Result{Response: OfflineResponse(req, ClassStatic), Source: SourceOffline, Class: ClassStatic}
}

// navigation serves page loads: network, then the exact cached page, then
// the cached application shell, then the offline page. It writes nothing;
// the shell is populated through the static strategy (see WarmShell).
func (i *Interceptor) navigation(ctx context.Context, req fetch.Request) *Result {
	log := logger.WithComponent("strategy")

	resp, err := i.fetcher.Do(ctx, req)
	if err == nil {
		return &Result{Response: resp, Source: SourceNetwork, Class: ClassNavigation}
	}
	log.Warnf("navigation fetch failed, falling back to cache: %v", err)

	if entry, getErr := i.store.Get(ctx, store.StaticKey(req.URL)); getErr == nil {
		return &Result{Response: entryResponse(entry), Source: SourceCache, Class: ClassNavigation}
	}

	if entry, getErr := i.store.Get(ctx, store.StaticKey(i.shellURL)); getErr == nil {
		return &Result{Response: entryResponse(entry), Source: SourceCache, Class: ClassNavigation}
	}

	return &Result{Response: OfflineResponse(req, ClassNavigation), Source: SourceOffline, Class: ClassNavigation}
}

// generic serves everything else: network with opportunistic caching, then
// cache lookup, then the offline responder.
func (i *Interceptor) generic(ctx context.Context, req fetch.Request) *Result {
	log := logger.WithComponent("strategy")
	key := store.GenericKey(req.URL)

	resp, err := i.fetcher.Do(ctx, req)
	if err == nil {
		i.putBestEffort(ctx, key, resp)
		return &Result{Response: resp, Source: SourceNetwork, Class: ClassGeneric}
	}
	log.Warnf("generic fetch failed, falling back to cache: %v", err)

	if entry, getErr := i.store.Get(ctx, key); getErr == nil {
		return &Result{Response: entryResponse(entry), Source: SourceCache, Class: ClassGeneric}
	}

	return &Result{Response: OfflineResponse(req, ClassGeneric), Source: SourceOffline, Class: ClassGeneric}
}

// WarmShell populates the shell page in the static namespace so navigation
// can fall back to it offline. Best-effort: a cold shell only matters once
// the network is already gone.
func (i *Interceptor) WarmShell(ctx context.Context) {
	if i.shellURL == "" {
		return
	}
	result := i.cacheFirst(ctx, fetch.Request{Method: http.MethodGet, URL: i.shellURL})
	if result.Source == SourceOffline {
		logger.WithComponent("strategy").Warn("could not warm application shell")
	}
}

// putBestEffort writes through to the store. Persistence failure must never
// block serving the freshly fetched response, so it is logged and dropped.
func (i *Interceptor) putBestEffort(ctx context.Context, key string, resp *fetch.Response) {
	entry := store.Entry{
		Payload:     resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if err := i.store.Put(ctx, key, entry); err != nil {
		logger.WithComponent("strategy").Warnf("cache write for %q failed: %v", key, err)
	}
}

// entryResponse rebuilds a response from a cached entry.
func entryResponse(entry store.Entry) *fetch.Response {
	header := http.Header{}
	if entry.ContentType != "" {
		header.Set("Content-Type", entry.ContentType)
	}
	return &fetch.Response{
		Status: http.StatusOK,
		Header: header,
		Body:   entry.Payload,
	}
}
