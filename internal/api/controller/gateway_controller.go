package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greensidehq/greenside/internal/fetch"
	"github.com/greensidehq/greenside/internal/strategy"
)

// GatewayController funnels every request that is not an API route through
// the strategy interceptor, giving the whole application shell offline
// capability without per-resource special-casing.
type GatewayController struct {
	interceptor *strategy.Interceptor
	baseURL     string
}

func NewGatewayController(interceptor *strategy.Interceptor, baseURL string) *GatewayController {
	return &GatewayController{
		interceptor: interceptor,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

// notForwarded lists headers dropped before the request goes upstream.
// Accept-Encoding must stay unset so the transport negotiates compression
// itself and hands back a decoded body; conditional and range headers would
// turn a cacheable 200 into a 304/206 the strategy ladder treats as failure.
var notForwarded = []string{
	"Accept-Encoding",
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"If-None-Match",
	"If-Modified-Since",
	"If-Range",
	"Range",
}

func forwardableHeaders(h http.Header) http.Header {
	out := h.Clone()
	for _, name := range notForwarded {
		out.Del(name)
	}
	return out
}

// Handle rewrites the incoming request against the upstream origin and
// serves whatever the strategy ladder resolves to. Every response is tagged
// with where it came from.
func (gc *GatewayController) Handle(c *gin.Context) {
	req := fetch.Request{
		Method: c.Request.Method,
		URL:    gc.baseURL + c.Request.URL.RequestURI(),
		Header: forwardableHeaders(c.Request.Header),
	}

	result := gc.interceptor.Handle(c.Request.Context(), req)

	c.Header("X-Served-From", string(result.Source))
	if offline := result.Header.Get("X-Offline"); offline != "" {
		c.Header("X-Offline", offline)
	}

	contentType := result.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(result.Status, contentType, result.Body)
}
