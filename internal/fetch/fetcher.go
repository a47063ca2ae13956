package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/greensidehq/greenside/internal/logger"
)

// ErrNetwork marks a fetch that exhausted all attempts. Callers fall back to
// cached data when errors.Is(err, ErrNetwork).
var ErrNetwork = errors.New("network unavailable")

// Request is the transport-independent description of an outbound call.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// Response is a fully buffered upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher performs an outbound request. Implementations decide their own
// retry policy; a returned error wrapping ErrNetwork means all attempts are
// spent.
type Fetcher interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// RetryingFetcher issues a request up to Attempts times with exponential
// backoff (Backoff, 2×Backoff, 4×Backoff, ...). Every attempt bypasses
// transport-level caches: staleness control belongs to the durable store,
// never to an intermediary.
type RetryingFetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// NewRetryingFetcher creates a fetcher with the given attempt limit,
// base backoff delay and per-request timeout.
func NewRetryingFetcher(attempts int, backoff, timeout time.Duration) *RetryingFetcher {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RetryingFetcher{
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		backoff:  backoff,
	}
}

// Do runs the request, retrying transport errors and non-2xx statuses.
// Each attempt's failure is logged so flakiness trends stay visible; only
// the last one is surfaced to the caller, wrapped in ErrNetwork.
func (f *RetryingFetcher) Do(ctx context.Context, req Request) (*Response, error) {
	log := logger.WithComponent("fetch")

	var lastErr error
	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			// Wait 2^(i-1) × backoff between attempt i-1 and i.
			delay := f.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s: %w", req.URL, ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := f.attemptOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Warnf("attempt %d/%d for %s failed: %v", attempt+1, f.attempts, req.URL, err)

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", req.URL, ctx.Err())
		}
	}

	return nil, fmt.Errorf("fetch %s: %w: %v", req.URL, ErrNetwork, lastErr)
}

func (f *RetryingFetcher) attemptOnce(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Pragma", "no-cache")

	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header.Clone(),
		Body:   body,
	}, nil
}
