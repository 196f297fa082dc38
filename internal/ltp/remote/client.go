// Package remote implements every stage of the ltp toolkit contract by
// calling a model server over JSON/HTTP.
//
// Protocol: POST {base}/models/load {"stage","path"} returns {"handle"};
// POST {base}/models/release {"handle"}; each stage posts its inputs plus
// the handle to {base}/<stage> and receives the per-token result.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/hanprep/internal/cache"
	"github.com/ppiankov/hanprep/internal/ltp"
	"github.com/ppiankov/hanprep/internal/model"
	"github.com/ppiankov/hanprep/internal/util"
	"github.com/ppiankov/hanprep/internal/worker"
)

const maxResponseBytes = 32 << 20

// ErrNotLoaded is returned when a model is used before Load or after Release
var ErrNotLoaded = errors.New("remote: model not loaded")

// StatusError reports a non-2xx answer from the model server
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client talks to one model server
type Client struct {
	base     *url.URL
	http     *http.Client
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger
}

// Option customises a Client
type Option func(*Client)

// WithCache caches stage responses. Load and release are never cached.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the proxy-aware default client
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(cl *Client) { cl.log = log }
}

// NewClient creates a client for the server at cfg.BaseURL
func NewClient(cfg model.RemoteConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		base:    base,
		http:    util.NewHTTPClient(timeout, cfg.HTTPProxy, cfg.HTTPSProxy),
		limiter: worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		timeout: timeout,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Toolkit exposes every stage backed by this client
func (c *Client) Toolkit() ltp.Toolkit {
	return ltp.Toolkit{
		Name:          "remote",
		NewSegmentor:  func() ltp.Segmentor { return &Segmentor{handle: c.handle(ltp.StageSegment)} },
		NewPostagger:  func() ltp.Postagger { return &Postagger{handle: c.handle(ltp.StagePostag)} },
		NewRecognizer: func() ltp.Recognizer { return &Recognizer{handle: c.handle(ltp.StageRecognize)} },
		NewParser:     func() ltp.Parser { return &Parser{handle: c.handle(ltp.StageParse)} },
		NewLabeller:   func() ltp.Labeller { return &Labeller{handle: c.handle(ltp.StageLabel)} },
	}
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + "/" + path
}

// post sends body to path and decodes the answer into out
func (c *Client) post(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	endpoint := c.endpoint(path)
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
