package transport

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultCacheWindow is how long a successful GET response is served without
// going back to the network.
const DefaultCacheWindow = 5 * time.Second

type cachedResponse struct {
	statusCode int
	header     http.Header
	body       []byte
	fetchedAt  time.Time
}

func (c cachedResponse) response(stale bool) *Response {
	return &Response{
		StatusCode: c.statusCode,
		Header:     c.header,
		Body:       c.body,
		FetchedAt:  c.fetchedAt,
		Cached:     true,
		Stale:      stale,
	}
}

// cacheKey identifies a request by method, url, query and body.
func cacheKey(method, rawURL string, query url.Values, body []byte) string {
	var sb strings.Builder
	sb.WriteString(method)
	sb.WriteByte(0)
	sb.WriteString(rawURL)
	sb.WriteByte(0)
	sb.WriteString(query.Encode())
	sb.WriteByte(0)
	sb.Write(body)
	return sb.String()
}

// lookupLocked returns the entry for key, whether it exists and whether it is still fresh. Entries older
// than twice the window are purged first. Callers must hold t.mu.
func (t *Transport) lookupLocked(key string, now time.Time) (cachedResponse, bool, bool) {
	for k, entry := range t.cache {
		if now.Sub(entry.fetchedAt) > 2*t.window {
			delete(t.cache, k)
		}
	}
	entry, ok := t.cache[key]
	if !ok {
		return cachedResponse{}, false, false
	}
	return entry, true, now.Sub(entry.fetchedAt) < t.window
}

func (t *Transport) store(key string, resp *Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[key] = cachedResponse{
		statusCode: resp.StatusCode,
		header:     resp.Header,
		body:       resp.Body,
		fetchedAt:  resp.FetchedAt,
	}
}

func (t *Transport) countCache(result string) {
	if t.cacheCounter != nil {
		t.cacheCounter.WithLabelValues(result).Inc()
	}
}
