package speak

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/auth"
	"github.com/vango-go/vai-speak/pkg/metrics"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the AI service base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource sets where bearer tokens come from. Without one, requests
// are sent unauthenticated.
func WithTokenSource(ts auth.TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}
