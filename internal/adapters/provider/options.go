package provider

import (
	"net/http"
	"time"

	"github.com/ecolens/ecolens/pkg/logger"
)

// Option applies a configuration option to the HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds a single analyzer call.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpc.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *HTTPClient) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithCacheSize bounds the analysis result cache.
func WithCacheSize(size int) Option {
	return func(c *HTTPClient) {
		if size > 0 {
			c.cache = newResultCache(size)
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}
