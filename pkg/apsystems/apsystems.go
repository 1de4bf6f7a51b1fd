// Package apsystems talks to the APsystems EMA cloud: the session based
// dashboard API reached through the public demo login, and the retired legacy
// ECU API. Fetched payloads are decoded into typed series and reduced to a
// single reading by the normalizer.
package apsystems

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/raterudder/apsystems-sensor/pkg/transport"
)

const (
	// DefaultDashboardURL is the base of every session endpoint.
	DefaultDashboardURL = "https://www.apsystemsema.com/ema"
	// DefaultLegacyURL is the base of the legacy ECU endpoint.
	DefaultLegacyURL = "http://api.apsystemsema.com:8073/apsema/v1"

	demoLoginPath     = "intoDemoUser.action"
	warmUpPath        = "security/optmainmenu/intoLargeDashboard.action"
	dashboardAjaxPath = "ajax/getDashboardApiAjax"
	legacyPowerPath   = "ecu/getPowerInfo"

	// EndpointDailyEnergy returns the daily energy totals of the last week.
	EndpointDailyEnergy = "getDashboardUserDailyEnergyInLastWeekAjax"
	// EndpointMonthlyEnergy returns the monthly energy totals of the last year.
	EndpointMonthlyEnergy = "getDashboardUserMonthlyEnergyInLastYearAjax"

	// loginTimeout bounds the login and the warm-up together
	loginTimeout = 30 * time.Second
	dataTimeout  = 10 * time.Second
)

var (
	// ErrNoCredentials is returned when neither a login url nor a user id is set.
	ErrNoCredentials = errors.New("no login url or user id configured")
	// ErrAuthFailed is returned when the login flow produced no session cookies.
	ErrAuthFailed = errors.New("demo login returned no session cookies")
	// ErrInvalidSession is returned when the dashboard answered with an html or
	// error page instead of data.
	ErrInvalidSession = errors.New("dashboard rejected the session")
	// ErrNoData is returned when a response had no usable payload.
	ErrNoData = errors.New("no data in response")
	// ErrLegacyRetired is returned when the legacy endpoint answers 404.
	ErrLegacyRetired = errors.New("legacy endpoint has been retired, switch to session based mode by configuring a login url or user id")
)

// Client issues requests against the EMA cloud through a single Transport.
// The Transport's cookie jar holds at most one session at a time so a Client
// must not be shared between accessories.
type Client struct {
	dashboardURL string
	legacyURL    string
	transport    *transport.Transport
	now          func() time.Time
	loginTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDashboardURL overrides DefaultDashboardURL.
func WithDashboardURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.dashboardURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithLegacyURL overrides DefaultLegacyURL.
func WithLegacyURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.legacyURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithClock sets the time source used for the legacy request date.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client that sends every request through t.
func New(t *transport.Transport, opts ...Option) *Client {
	c := &Client{
		dashboardURL: DefaultDashboardURL,
		legacyURL:    DefaultLegacyURL,
		transport:    t,
		now:          time.Now,
		loginTimeout: loginTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Validate ensures the configured base urls parse.
func (c *Client) Validate() error {
	for name, u := range map[string]string{"dashboard-url": c.dashboardURL, "legacy-url": c.legacyURL} {
		p, err := url.Parse(u)
		if err != nil {
			return fmt.Errorf("failed to parse %s (%s): %w", name, u, err)
		}
		if p.Scheme == "" || p.Host == "" {
			return fmt.Errorf("%s must be an absolute url: %s", name, u)
		}
	}
	return nil
}

// DemoLoginURL builds the demo login url for a user id.
func (c *Client) DemoLoginURL(userID string) string {
	q := url.Values{}
	q.Set("id", userID)
	q.Set("local", "en_US")
	return c.dashboardURL + "/" + demoLoginPath + "?" + q.Encode()
}

func (c *Client) warmUpURL() string {
	return c.dashboardURL + "/" + warmUpPath + "?locale=en_US"
}

func (c *Client) dashboardEndpointURL(endpoint string) string {
	return c.dashboardURL + "/" + dashboardAjaxPath + "/" + endpoint
}

func (c *Client) legacyPowerURL() string {
	return c.legacyURL + "/" + legacyPowerPath
}

// dashboardCookieURL is the url cookies are scoped to for the dashboard.
func (c *Client) dashboardCookieURL() *url.URL {
	u, err := url.Parse(c.dashboardURL + "/")
	if err != nil {
		// Validate rejects these at startup
		return &url.URL{}
	}
	return u
}
