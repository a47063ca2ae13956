package strategy

import (
	"net/http"
	"testing"

	"github.com/greensidehq/greenside/internal/fetch"
)

func testRouter() Router {
	return Router{DataPath: "/data/", ShellPath: "/index.html"}
}

func htmlHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml")
	return h
}

func TestRouter_Classify(t *testing.T) {
	router := testRouter()

	tests := []struct {
		name     string
		req      fetch.Request
		expected Class
	}{
		{
			name:     "dataset url is data",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/data/tournaments.json"},
			expected: ClassData,
		},
		{
			// .json is a static extension, but the data namespace wins
			name:     "json under data path is data, not static",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/data/archive.json"},
			expected: ClassData,
		},
		{
			name:     "json outside data path is static",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/config/manifest.json"},
			expected: ClassStatic,
		},
		{
			name:     "script is static",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/assets/app.js"},
			expected: ClassStatic,
		},
		{
			name:     "stylesheet is static",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/assets/app.css"},
			expected: ClassStatic,
		},
		{
			name:     "image is static even with html accept",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/logo.png", Header: htmlHeader()},
			expected: ClassStatic,
		},
		{
			name:     "page load with html accept is navigation",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/leaderboard", Header: htmlHeader()},
			expected: ClassNavigation,
		},
		{
			name: "sec-fetch-mode navigate is navigation",
			req: fetch.Request{Method: http.MethodGet, URL: "https://example.com/about", Header: http.Header{
				"Sec-Fetch-Mode": []string{"navigate"},
			}},
			expected: ClassNavigation,
		},
		{
			name:     "post with html accept is not navigation",
			req:      fetch.Request{Method: http.MethodPost, URL: "https://example.com/submit", Header: htmlHeader()},
			expected: ClassGeneric,
		},
		{
			name:     "bare get without headers is generic",
			req:      fetch.Request{Method: http.MethodGet, URL: "https://example.com/ping"},
			expected: ClassGeneric,
		},
		{
			name:     "unparseable url is generic",
			req:      fetch.Request{Method: http.MethodGet, URL: "://bad"},
			expected: ClassGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Classify(tt.req)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRouter_ClassifyIsDeterministic(t *testing.T) {
	router := testRouter()
	req := fetch.Request{Method: http.MethodGet, URL: "https://example.com/data/tournaments.json", Header: htmlHeader()}

	first := router.Classify(req)
	for i := 0; i < 100; i++ {
		if got := router.Classify(req); got != first {
			t.Fatalf("classification changed on call %d: %s vs %s", i, got, first)
		}
	}
}
