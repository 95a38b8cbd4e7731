// Package rpcclient connects to a Tezos node. It extends the tzgo RPC client with request rate
// limiting, request logging and a fetcher for documents served outside of the node, such as
// off-chain contract metadata.
package rpcclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/trilitech/tzgo/rpc"
	"golang.org/x/time/rate"

	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Client talks to a single Tezos node. The node RPC is served by the embedded tzgo client.
type Client struct {
	*rpc.Client

	rc   *resty.Client
	lggr logger.Logger
}

type config struct {
	httpClient *http.Client
	timeout    time.Duration
	limit      rate.Limit
	burst      int
	lggr       logger.Logger
}

// Option configures a Client.
type Option func(*config)

// WithHTTPClient sets the underlying http client, e.g. to configure TLS or a proxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of a single request. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRateLimit limits the rate of requests sent to the node. Requests wait for a token until
// their context is done.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *config) {
		c.limit = r
		c.burst = burst
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(lggr logger.Logger) Option {
	return func(c *config) {
		c.lggr = lggr
	}
}

// New creates a client for the node at url. No request is made until the first call.
func New(url string, opts ...Option) (*Client, error) {
	cfg := config{
		timeout: defaultTimeout,
		lggr:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := &http.Client{}
	if cfg.httpClient != nil {
		copied := *cfg.httpClient
		hc = &copied
	}
	if cfg.timeout > 0 {
		hc.Timeout = cfg.timeout
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	t := &transport{next: next, lggr: cfg.lggr}
	if cfg.limit > 0 {
		t.limiter = rate.NewLimiter(cfg.limit, cfg.burst)
	}
	hc.Transport = t

	client, err := rpc.NewClient(url, hc)
	if err != nil {
		return nil, fmt.Errorf("invalid Tezos node URL %s: %w", url, err)
	}

	return &Client{
		Client: client,
		rc:     resty.NewWithClient(hc).SetRetryCount(0),
		lggr:   cfg.lggr,
	}, nil
}

// Fetch downloads a document outside of the node, such as off-chain contract metadata. A non
// success status is returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	c.lggr.Debugw("Fetching document", "url", url)

	resp, err := c.rc.R().SetContext(ctx).SetHeader("Accept", "*/*").Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, &StatusError{
			Method: http.MethodGet,
			URL:    url,
			Code:   resp.StatusCode(),
			Text:   resp.Status(),
			Data:   resp.Body(),
		}
	}

	return resp.Body(), nil
}

// transport rate limits and logs the requests of both the node client and the fetcher.
type transport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	lggr    logger.Logger
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	t.lggr.Debugw("RPC request", "method", req.Method, "path", req.URL.Path)

	return t.next.RoundTrip(req)
}
