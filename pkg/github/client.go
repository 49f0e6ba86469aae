package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// DefaultAPI is the public GitHub REST API root.
const DefaultAPI = "https://api.github.com"

// APIVersion is sent as X-GitHub-Api-Version on every request.
const APIVersion = "2022-11-28"

// Options configures a Client.
type Options struct {
	// API root. Defaults to DefaultAPI.
	API string
	// Token is sent as a bearer token when non-empty.
	Token string
	// Timeout bounds each request. Zero keeps the transport default.
	Timeout time.Duration
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
	// Selection supplies the persisted repository/branch.
	Selection SelectionSource
}

// Client talks to the GitHub REST API. It is safe for concurrent use.
type Client struct {
	httpclient *http.Client
	token      string
	resolver   *Resolver

	mu    sync.Mutex
	lists map[string]*remote.Cache[json.RawMessage]
}

// NewClient constructs a Client from opts.
func NewClient(opts Options) (*Client, error) {
	api := strings.TrimSpace(opts.API)
	if api == "" {
		api = DefaultAPI
	}
	if !strings.HasPrefix(api, "http://") && !strings.HasPrefix(api, "https://") {
		return nil, fmt.Errorf("invalid api root %q: %w", api, remote.ErrInvalid)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpclient: hc,
		token:      opts.Token,
		resolver:   &Resolver{API: strings.TrimSuffix(api, "/"), Selection: opts.Selection},
		lists:      make(map[string]*remote.Cache[json.RawMessage]),
	}, nil
}

// Resolver returns the path resolver bound to this client.
func (c *Client) Resolver() *Resolver {
	return c.resolver
}

func (c *Client) newRequest(ctx context.Context, method string, url string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	lg := internal.LoggerFromContext(req.Context())
	start := time.Now()
	resp, err := c.httpclient.Do(req)
	if err != nil {
		lg.Debug("github request failed", "op", op, "method", req.Method, "url", req.URL.String(), "err", err)
		return nil, remote.NewBackendError(backendName, op, 0, err.Error(), err, true)
	}
	lg.Debug("github request",
		"op", op,
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)
	return resp, nil
}

// conditionalGet performs a GET honoring etag. The returned Object carries
// the raw response body in Data, the ETag header, and NotModified for a 304.
func (c *Client) conditionalGet(ctx context.Context, url string, etag string, op string) (*remote.Object, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &remote.Object{NotModified: true, ETag: etag}, nil
	}
	if !isSuccess(resp) {
		return nil, errorFor(resp, op, url, "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, remote.NewBackendError(backendName, op, resp.StatusCode, "cannot read response body", err, true)
	}
	return &remote.Object{Data: body, ETag: resp.Header.Get("ETag")}, nil
}

// listCache returns the ETag cache for a list endpoint URL, creating it on
// first use.
func (c *Client) listCache(url string, op string) *remote.Cache[json.RawMessage] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lc, ok := c.lists[url]; ok {
		return lc
	}
	lc := remote.NewCache(op, func(ctx context.Context, etag string) (*remote.Object, error) {
		return c.conditionalGet(ctx, url, etag, op)
	}, func(data []byte) (json.RawMessage, error) {
		return json.RawMessage(data), nil
	})
	c.lists[url] = lc
	return lc
}
