// Package fetch is the HTTP transport shared by the index fetcher and the
// archive installer. It performs GET requests with a bounded timeout,
// a DNS-caching dialer and an optional exponential-backoff retry policy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cenk/backoff"
	"github.com/charmbracelet/log"
	"github.com/rs/dnscache"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrRateLimited  = errors.New("rate limited by server")
	ErrUpstreamDown = errors.New("server unavailable")
)

const (
	defaultTimeout   = 60 * time.Second
	defaultBaseDelay = 500 * time.Millisecond
)

// Client downloads resources over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	retries    int
	baseDelay  time.Duration
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithRetries sets how many times a failed request is retried.
// Zero, the default, means a single attempt.
func WithRetries(n int) Option {
	return func(cl *Client) {
		cl.retries = n
	}
}

// WithBaseDelay sets the initial interval of the exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(cl *Client) {
		cl.baseDelay = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent: "vixpip",
		timeout:   defaultTimeout,
		baseDelay: defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: newTransport()}
	}
	// Copy so the timeout never leaks into a caller-owned client.
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// newTransport builds a transport whose dialer resolves hosts through an
// in-process DNS cache.
func newTransport() *http.Transport {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, fmt.Errorf("dialing %s: %w", addr, lastErr)
		},
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Get fetches url and returns the whole response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.retry(ctx, url, func() error {
		resp, err := c.do(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Download streams url into destPath, creating or truncating it, and
// returns the number of bytes written. A failed download may leave a
// partial file at destPath.
func (c *Client) Download(ctx context.Context, url, destPath string) (int64, error) {
	var written int64
	err := c.retry(ctx, url, func() error {
		resp, err := c.do(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		f, err := os.Create(destPath)
		if err != nil {
			return fmt.Errorf("creating download file: %w", err)
		}

		written, err = io.Copy(f, resp.Body)
		if err != nil {
			f.Close()
			return fmt.Errorf("writing download: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing download file: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.logger.Debug("download complete", "url", url, "bytes", written, "path", destPath)
	return written, nil
}

// retry runs op once, then up to c.retries more times with exponential
// backoff while it keeps failing with a retryable error.
func (c *Client) retry(ctx context.Context, url string, op func() error) error {
	// WithMaxRetries treats 0 as unlimited.
	if c.retries <= 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.baseDelay
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if attempt <= c.retries {
			c.logger.Debug("request failed, retrying", "url", url, "attempt", attempt, "err", err)
		}
		return err
	}, policy)
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("GET", "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", url, ErrRateLimited)
	case resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s returned status %d: %w", url, resp.StatusCode, ErrUpstreamDown)
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
}

// retryable reports whether err is worth another attempt: rate limiting,
// server errors and transport failures are; everything else is not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamDown) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
