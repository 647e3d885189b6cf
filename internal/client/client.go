// Package client calls the generation backend: single-shot generation and
// streamed chat.
package client

import (
	"net/http"
	"strings"
	"time"
)

const (
	DefaultGenerateTimeout = 60 * time.Second
	DefaultChatTimeout     = 5 * time.Minute
)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	header     http.Header
}

// Option configures a client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Add(key, value)
	}
}

func buildOptions(defaultTimeout time.Duration, opts []Option) options {
	o := options{httpClient: http.DefaultClient, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) applyHeaders(req *http.Request) {
	for k, vs := range o.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
