package strategy

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/greensidehq/greenside/internal/fetch"
)

// Kind is the expected content kind of a request, used to shape the
// synthesized placeholder when neither network nor cache can answer.
type Kind int

const (
	KindMarkup Kind = iota
	KindData
	KindOther
)

// offlinePage is a self-contained markup placeholder with a retry action.
const offlinePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Offline</title>
  <style>
    body { font-family: sans-serif; text-align: center; padding: 4rem 1rem; color: #2d3a2e; }
    button { padding: 0.6rem 1.4rem; font-size: 1rem; cursor: pointer; }
  </style>
</head>
<body>
  <h1>You are offline</h1>
  <p>The clubhouse could not be reached and nothing is cached for this page.</p>
  <button onclick="window.location.reload()">Retry</button>
</body>
</html>`

// kindOf derives the expected content kind from the classification and the
// request itself.
func kindOf(req fetch.Request, class Class) Kind {
	switch class {
	case ClassData:
		return KindData
	case ClassNavigation:
		return KindMarkup
	}

	if u, err := url.Parse(req.URL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".json":
			return KindData
		case ".html", ".htm":
			return KindMarkup
		}
	}

	if req.Header != nil {
		accept := req.Header.Get("Accept")
		if strings.Contains(accept, "text/html") {
			return KindMarkup
		}
		if strings.Contains(accept, "application/json") {
			return KindData
		}
	}

	return KindOther
}

// OfflineResponse synthesizes a well-formed placeholder for the request so
// no caller is ever left without a usable result just because the network is
// down. Data-kind responses keep the structural shape of a normal payload
// (an empty collection) so callers need no special-case parsing.
func OfflineResponse(req fetch.Request, class Class) *fetch.Response {
	header := http.Header{}
	header.Set("X-Offline", "true")

	switch kindOf(req, class) {
	case KindMarkup:
		header.Set("Content-Type", "text/html; charset=utf-8")
		return &fetch.Response{
			Status: http.StatusOK,
			Header: header,
			Body:   []byte(offlinePage),
		}
	case KindData:
		header.Set("Content-Type", "application/json")
		return &fetch.Response{
			Status: http.StatusOK,
			Header: header,
			Body:   []byte("[]"),
		}
	default:
		header.Set("Content-Type", "text/plain; charset=utf-8")
		return &fetch.Response{
			Status: http.StatusServiceUnavailable,
			Header: header,
			Body:   []byte("resource unavailable offline"),
		}
	}
}
