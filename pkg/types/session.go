package types

import (
	"net/http"
	"sort"
)

// SessionHandle maps cookie names to values for one authenticated demo session.
// An empty handle means the session could not be acquired.
type SessionHandle map[string]string

// Empty returns true if no cookies were harvested.
func (h SessionHandle) Empty() bool {
	return len(h) == 0
}

// Cookies returns the handle as http cookies sorted by name.
func (h SessionHandle) Cookies() []*http.Cookie {
	names := make([]string, 0, len(h))
	for n := range h {
		names = append(names, n)
	}
	sort.Strings(names)
	cookies := make([]*http.Cookie, 0, len(names))
	for _, n := range names {
		cookies = append(cookies, &http.Cookie{Name: n, Value: h[n]})
	}
	return cookies
}

// SessionFromCookies builds a handle from cookies read back from a jar.
func SessionFromCookies(cookies []*http.Cookie) SessionHandle {
	h := make(SessionHandle, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		h[c.Name] = c.Value
	}
	return h
}
