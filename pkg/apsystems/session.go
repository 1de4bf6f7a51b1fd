package apsystems

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/raterudder/apsystems-sensor/pkg/log"
	"github.com/raterudder/apsystems-sensor/pkg/transport"
	"github.com/raterudder/apsystems-sensor/pkg/types"
)

var browserHeaders = http.Header{
	"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	"Accept-Language": {"en-US,en;q=0.9"},
}

// AcquireSession replays the demo login and returns the session cookies held
// for the dashboard. loginURL wins over userID when both are set. The returned
// handle is never nil; it is empty whenever err is non-nil.
func (c *Client) AcquireSession(ctx context.Context, loginURL, userID string) (types.SessionHandle, error) {
	if loginURL == "" {
		if userID == "" {
			log.Ctx(ctx).WarnContext(ctx, "cannot login without a login url or user id")
			return types.SessionHandle{}, ErrNoCredentials
		}
		loginURL = c.DemoLoginURL(userID)
	}

	// a fresh jar per login so a previous session cannot leak into this one
	c.transport.ClearCookies()

	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	_, err := c.transport.Do(ctx, transport.Request{
		Method:       http.MethodGet,
		URL:          loginURL,
		Header:       browserHeaders,
		AcceptStatus: transport.StatusBetween(200, 400),
		SkipCache:    true,
	})
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "demo login failed", slog.String("url", loginURL), slog.Any("error", err))
		return types.SessionHandle{}, fmt.Errorf("demo login failed: %w", err)
	}

	// some session cookies are only set once the dashboard itself is opened
	if _, err := c.transport.Do(ctx, transport.Request{
		Method:       http.MethodGet,
		URL:          c.warmUpURL(),
		Header:       browserHeaders,
		AcceptStatus: transport.StatusBetween(200, 400),
		SkipCache:    true,
	}); err != nil {
		log.Ctx(ctx).InfoContext(ctx, "dashboard warm-up failed", slog.Any("error", err))
	}

	session := types.SessionFromCookies(c.transport.Cookies(c.dashboardCookieURL()))
	if session.Empty() {
		log.Ctx(ctx).WarnContext(ctx, "demo login set no cookies", slog.String("url", loginURL))
		return types.SessionHandle{}, ErrAuthFailed
	}
	log.Ctx(ctx).DebugContext(ctx, "acquired demo session", slog.Int("cookies", len(session)))
	return session, nil
}
