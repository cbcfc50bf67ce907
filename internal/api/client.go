// Package api is the HTTP client for the Nexus backend contract: control-panel
// login, the dashboard KPI endpoint, and the push channel address.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Endpoint paths, relative to the base address.
const (
	LoginPath     = "/api/auth/login/control"
	DashboardPath = "/api/admin/dashboard"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryDelay = 500 * time.Millisecond
	maxBodyBytes      = 1 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// NetworkRetries is how many extra attempts a request gets after a
	// transport failure. HTTP status failures are never retried.
	NetworkRetries int
	RetryDelay     time.Duration

	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client talks to the Nexus backend.
type Client struct {
	base       *url.URL
	http       *http.Client
	retries    int
	retryDelay time.Duration
	log        logger.Logger
}

// NewClient validates the base address and builds a client.
func NewClient(opts Options) (*Client, error) {
	base, err := ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	retries := opts.NetworkRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		base:       base,
		http:       httpClient,
		retries:    retries,
		retryDelay: retryDelay,
		log:        logger.OrDefault(opts.Logger),
	}, nil
}

// ParseBaseURL checks that raw is an absolute http(s) address.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid API base address: %q", raw),
			"Set api.base_url to something like http://localhost:8000")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unsupported API scheme %q", u.Scheme),
			"api.base_url must start with http:// or https://")
	}
	if u.Host == "" {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("API base address has no host: %q", raw),
			"Set api.base_url to something like http://localhost:8000")
	}
	return u, nil
}

// BaseURL returns the configured base address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ChannelURL derives the push channel address from the base address:
// http becomes ws, https becomes wss, and path is appended.
func (c *Client) ChannelURL(path string) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if path == "" {
		path = "/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do sends a request built by build, retrying transport failures up to the
// configured bound. The caller owns the response body.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying after network failure (attempt %d/%d): %v", attempt+1, c.retries+1, lastErr)
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, errors.Wrap(ctx.Err(), "Request cancelled")
			case <-timer.C:
			}
		}

		req, err := build()
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to build request", "")
		}

		resp, err := c.http.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.WrapWithCode(lastErr, errors.ErrNetwork,
		"Cannot reach the Nexus backend",
		"Check that the API is running at "+c.BaseURL())
}

// readBody reads at most maxBodyBytes of the response body.
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// errorDetail best-effort decodes FastAPI's {"detail": ...} error body.
// Anything undecodable yields an empty detail.
func errorDetail(body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch d := payload.Detail.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		encoded, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
