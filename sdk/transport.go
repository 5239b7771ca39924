package speak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/core"
)

const (
	defaultRequestTimeout = 2 * time.Minute
	maxResponseBytes      = 4 << 20
)

// withDefaultGatewayTimeout applies the default deadline unless ctx has one.
func withDefaultGatewayTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultRequestTimeout)
}

func (c *Client) postJSON(ctx context.Context, operation, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, core.NewInvalidRequestError("failed to marshal request body")
	}
	return c.post(ctx, operation, path, body, "application/json")
}

// post sends one request and returns the body of a 2xx response. Non-2xx
// responses become *core.Error; network failures become *TransportError.
func (c *Client) post(ctx context.Context, operation, path string, body []byte, contentType string) ([]byte, error) {
	ctx, cancel := withDefaultGatewayTimeout(ctx)
	defer cancel()

	endpoint, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Operation: operation, URL: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	log := c.logger.With(zap.String("operation", operation))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Operation: operation, URL: endpoint, Err: err}
		c.metrics.RecordGatewayRequest(operation, "transport_error", time.Since(start))
		log.Warn("gateway request failed",
			zap.Duration("duration", time.Since(start)),
			zap.Bool("timeout", terr.Timeout()),
			zap.Error(err),
		)
		return nil, terr
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := core.DecodeErrorResponse(resp)
		c.metrics.RecordGatewayRequest(operation, status, time.Since(start))
		log.Warn("gateway returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", apiErr.RequestID),
			zap.Duration("duration", time.Since(start)),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RecordGatewayRequest(operation, status, time.Since(start))
	if err != nil {
		return nil, &core.Error{
			Type:      core.ErrAPI,
			Message:   "failed to read gateway response",
			RequestID: core.RequestIDFromHeader(resp.Header),
		}
	}
	log.Debug("gateway request completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return data, nil
}

// authorize adds a bearer token when the token source has one. A missing
// token is not an error; the request goes out unauthenticated.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve credential: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) endpoint(path string) (string, error) {
	rawBaseURL := strings.TrimSpace(c.baseURL)
	if rawBaseURL == "" {
		return "", core.NewInvalidRequestError("base URL is not configured")
	}

	base, err := url.Parse(rawBaseURL)
	if err != nil || strings.TrimSpace(base.Scheme) == "" || strings.TrimSpace(base.Host) == "" {
		return "", core.NewInvalidRequestError("invalid base URL")
	}
	if base.User != nil {
		return "", core.NewInvalidRequestError("base URL must not include credentials")
	}

	base.RawQuery = ""
	base.Fragment = ""

	cleanPath := "/" + strings.TrimLeft(path, "/")
	basePath := strings.TrimSuffix(base.Path, "/")
	if basePath == "" {
		base.Path = cleanPath
	} else {
		base.Path = basePath + cleanPath
	}
	base.RawPath = ""

	return base.String(), nil
}

func decodeBody(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &core.Error{Type: core.ErrAPI, Message: "failed to decode gateway response"}
	}
	return nil
}
