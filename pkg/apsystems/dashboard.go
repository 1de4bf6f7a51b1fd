package apsystems

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/raterudder/apsystems-sensor/pkg/log"
	"github.com/raterudder/apsystems-sensor/pkg/transport"
	"github.com/raterudder/apsystems-sensor/pkg/types"
)

// invalidSessionMarkers identify pages the dashboard serves instead of JSON
// when the session is not accepted. Matched case-insensitively.
var invalidSessionMarkers = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
	[]byte("login timeout"),
	[]byte("please login"),
	[]byte("session has expired"),
}

// FetchDailyEnergy returns the daily energy totals of the last week, the last
// entry being today.
func (c *Client) FetchDailyEnergy(ctx context.Context, session types.SessionHandle) (DashboardSeries, error) {
	return c.fetchDashboard(ctx, session, EndpointDailyEnergy)
}

// FetchMonthlyEnergy returns the monthly energy totals of the last year, the
// last entry being the current month.
func (c *Client) FetchMonthlyEnergy(ctx context.Context, session types.SessionHandle) (DashboardSeries, error) {
	return c.fetchDashboard(ctx, session, EndpointMonthlyEnergy)
}

func (c *Client) fetchDashboard(ctx context.Context, session types.SessionHandle, endpoint string) (DashboardSeries, error) {
	if session.Empty() {
		return nil, ErrAuthFailed
	}

	// only one session lives in the jar at a time
	c.transport.ClearCookies()
	cookies := session.Cookies()
	for _, ck := range cookies {
		ck.Path = "/"
	}
	c.transport.SetCookies(c.dashboardCookieURL(), cookies)

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.dashboardEndpointURL(endpoint),
		Body:   []byte{},
		Header: http.Header{
			"Accept":           {"application/json, text/javascript, */*; q=0.01"},
			"Content-Type":     {"application/x-www-form-urlencoded; charset=UTF-8"},
			"X-Requested-With": {"XMLHttpRequest"},
			"Referer":          {c.warmUpURL()},
		},
		Timeout:      dataTimeout,
		AcceptStatus: transport.StatusBetween(200, 500),
	})
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "dashboard request failed", slog.String("endpoint", endpoint), slog.Any("error", err))
		return nil, fmt.Errorf("dashboard request failed: %w", err)
	}

	if isInvalidSessionPage(resp.Body) {
		log.Ctx(ctx).WarnContext(
			ctx,
			"dashboard returned an error page, session is invalid",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
		)
		return nil, ErrInvalidSession
	}

	series, err := DecodeDashboard(resp.Body)
	if err != nil {
		log.Ctx(ctx).WarnContext(
			ctx,
			"failed to decode dashboard response",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.Any("error", err),
		)
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "got dashboard series", slog.String("endpoint", endpoint), slog.Int("entries", len(series)))
	return series, nil
}

func isInvalidSessionPage(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, m := range invalidSessionMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}
