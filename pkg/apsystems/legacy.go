package apsystems

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/raterudder/apsystems-sensor/pkg/log"
	"github.com/raterudder/apsystems-sensor/pkg/transport"
)

// legacyBody builds the form body in the field order the endpoint expects.
func legacyBody(ecuID string, day time.Time) []byte {
	return []byte(fmt.Sprintf(
		"filter=power&ecuId=%s&date=%s",
		url.QueryEscape(ecuID),
		day.Format("20060102"),
	))
}

// FetchLegacyPower posts to the legacy ECU endpoint for today's power samples.
// A 404 means the endpoint is gone and is reported as ErrLegacyRetired.
func (c *Client) FetchLegacyPower(ctx context.Context, ecuID string) (LegacySeries, error) {
	if ecuID == "" {
		return nil, fmt.Errorf("%w: missing ecu id", ErrNoCredentials)
	}

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.legacyPowerURL(),
		Body:   legacyBody(ecuID, c.now()),
		Header: http.Header{
			"Content-Type": {"application/x-www-form-urlencoded"},
		},
		Timeout:      dataTimeout,
		AcceptStatus: transport.StatusBetween(200, 500),
	})
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "legacy request failed", slog.String("ecuID", ecuID), slog.Any("error", err))
		return nil, fmt.Errorf("legacy request failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		log.Ctx(ctx).WarnContext(ctx, ErrLegacyRetired.Error(), slog.String("ecuID", ecuID))
		return nil, ErrLegacyRetired
	}

	// 4xx bodies other than 404 are still inspected for power samples
	series, err := DecodeLegacy(resp.Body)
	if err != nil {
		log.Ctx(ctx).WarnContext(
			ctx,
			"failed to decode legacy response",
			slog.Int("status", resp.StatusCode),
			slog.Any("error", err),
		)
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "got legacy series", slog.Int("samples", len(series)))
	return series, nil
}
