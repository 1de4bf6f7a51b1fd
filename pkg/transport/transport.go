// Package transport wraps an http.Client with a cookie jar and a short-lived
// response cache. Each Transport owns its own jar and cache, so two pollers
// never share a session. The demo login and warm-up GETs bypass the cache
// since they only matter for the cookies they set, so the cache serves other
// GET callers.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raterudder/apsystems-sensor/pkg/common"
	"github.com/raterudder/apsystems-sensor/pkg/log"
)

// ErrStatus is matched by every *StatusError.
var ErrStatus = errors.New("unexpected status")

// StatusError is returned when a response status is outside the accepted range.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is allows errors.Is(err, ErrStatus).
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// StatusBetween returns an AcceptStatus func that accepts [min, max).
func StatusBetween(min, max int) func(int) bool {
	return func(code int) bool {
		return code >= min && code < max
	}
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}

// Request describes a single call.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Body   []byte
	Header http.Header
	// Timeout bounds the whole call including redirects. Zero means no limit
	// beyond the context.
	Timeout time.Duration
	// AcceptStatus reports whether a status is structurally valid. Defaults to
	// 2xx only.
	AcceptStatus func(int) bool
	// SkipCache makes a GET bypass the cache entirely, for requests that exist
	// for their cookie side effects.
	SkipCache bool
}

// Response is a fully read response. Body must be treated as read-only since
// it may be shared with the cache.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FetchedAt  time.Time
	// Cached is true if the response came from the cache.
	Cached bool
	// Stale is true if the network call failed and an expired entry was served.
	Stale bool
}

// Transport performs requests with a shared cookie jar and response cache.
type Transport struct {
	client       *http.Client
	jar          *resetJar
	window       time.Duration
	now          func() time.Time
	cacheCounter *prometheus.CounterVec

	mu    sync.Mutex
	cache map[string]cachedResponse
}

// Option configures a Transport.
type Option func(*Transport)

// WithCacheWindow overrides DefaultCacheWindow.
func WithCacheWindow(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithClock sets the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		t.now = now
	}
}

// WithCacheCounter counts cache results ("hit", "miss", "stale") on the given
// vector, which must have a single label.
func WithCacheCounter(c *prometheus.CounterVec) Option {
	return func(t *Transport) {
		t.cacheCounter = c
	}
}

// New creates a Transport with an empty jar and cache.
func New(opts ...Option) *Transport {
	t := &Transport{
		jar:    newJar(),
		window: DefaultCacheWindow,
		now:    time.Now,
		cache:  make(map[string]cachedResponse),
	}
	for _, o := range opts {
		o(t)
	}
	// timeouts are applied per request through the context
	t.client = common.HTTPClient(0, t.jar)
	return t
}

// ClearCookies drops every cookie in the jar.
func (t *Transport) ClearCookies() {
	t.jar.reset()
}

// SetCookies stores cookies for u.
func (t *Transport) SetCookies(u *url.URL, cookies []*http.Cookie) {
	t.jar.SetCookies(u, cookies)
}

// Cookies returns the cookies the jar would send to u.
func (t *Transport) Cookies(u *url.URL) []*http.Cookie {
	return t.jar.Cookies(u)
}

// Do performs the request. GET requests are answered from the cache while the
// entry is fresh. When a GET fails and an older entry is still held, that
// entry is returned with Stale set instead of the error.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	cacheable := req.Method == http.MethodGet && !req.SkipCache
	key := cacheKey(req.Method, req.URL, req.Query, req.Body)

	var (
		entry    cachedResponse
		hasEntry bool
	)
	if cacheable {
		var fresh bool
		t.mu.Lock()
		entry, hasEntry, fresh = t.lookupLocked(key, t.now())
		t.mu.Unlock()
		if fresh {
			log.Ctx(ctx).DebugContext(ctx, "serving cached response", slog.String("url", req.URL))
			t.countCache("hit")
			return entry.response(false), nil
		}
		t.countCache("miss")
	}

	resp, err := t.do(ctx, req)
	if err != nil {
		if cacheable && hasEntry {
			log.Ctx(ctx).WarnContext(
				ctx,
				"request failed, serving stale response",
				slog.String("url", req.URL),
				slog.Time("fetchedAt", entry.fetchedAt),
				slog.Any("error", err),
			)
			t.countCache("stale")
			return entry.response(true), nil
		}
		return nil, err
	}

	if cacheable && is2xx(resp.StatusCode) {
		t.store(key, resp)
	}
	return resp, nil
}

func (t *Transport) do(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url (%s): %w", req.URL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	log.Ctx(ctx).DebugContext(ctx, "sending request", slog.String("method", req.Method), slog.String("url", u.String()))
	hresp, err := t.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", u.String(), err)
	}

	accept := req.AcceptStatus
	if accept == nil {
		accept = is2xx
	}
	if !accept(hresp.StatusCode) {
		return nil, &StatusError{StatusCode: hresp.StatusCode, URL: u.String()}
	}

	return &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header,
		Body:       data,
		FetchedAt:  t.now(),
	}, nil
}
