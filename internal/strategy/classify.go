package strategy

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/greensidehq/greenside/internal/fetch"
)

// Class is the request classification that selects a caching strategy.
type Class int

const (
	ClassData Class = iota
	ClassStatic
	ClassNavigation
	ClassGeneric
)

func (c Class) String() string {
	switch c {
	case ClassData:
		return "data"
	case ClassStatic:
		return "static"
	case ClassNavigation:
		return "navigation"
	default:
		return "generic"
	}
}

// staticExtensions are file suffixes served cache-first. Note .json is
// listed: classification precedence (data before static) is what keeps the
// dataset itself out of the static namespace.
var staticExtensions = map[string]bool{
	".js":    true,
	".css":   true,
	".json":  true,
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".gif":   true,
	".webp":  true,
	".svg":   true,
	".ico":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
}

// Router maps a request to exactly one class. Classify is pure, total and
// deterministic: the same (method, URL, headers) always yields the same
// class, so caching behavior is predictable.
type Router struct {
	// DataPath is the URL path prefix of the data namespace.
	DataPath string
	// ShellPath is the application shell page navigation falls back to.
	ShellPath string
}

// Classify applies the precedence data → static → navigation → generic.
// Data is checked first so a .json URL under the data path is treated as
// Data (network-first) even though .json is also a static extension.
func (r Router) Classify(req fetch.Request) Class {
	u, err := url.Parse(req.URL)
	if err != nil {
		return ClassGeneric
	}

	if r.DataPath != "" && strings.HasPrefix(u.Path, r.DataPath) {
		return ClassData
	}

	if staticExtensions[strings.ToLower(path.Ext(u.Path))] {
		return ClassStatic
	}

	if isNavigation(req) {
		return ClassNavigation
	}

	return ClassGeneric
}

// isNavigation detects page loads: GET requests whose headers announce a
// document navigation or an HTML expectation.
func isNavigation(req fetch.Request) bool {
	if req.Method != "" && req.Method != http.MethodGet {
		return false
	}
	if req.Header == nil {
		return false
	}
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
