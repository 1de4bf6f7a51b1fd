// Package sensor turns the EMA cloud into a single number for the host: one
// Poller per accessory, each with its own transport so sessions never cross.
package sensor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/raterudder/apsystems-sensor/pkg/apsystems"
	"github.com/raterudder/apsystems-sensor/pkg/log"
	"github.com/raterudder/apsystems-sensor/pkg/transport"
	"github.com/raterudder/apsystems-sensor/pkg/types"
)

// Poller fetches the configured reading on demand.
type Poller struct {
	cfg     Config
	client  *apsystems.Client
	metrics *Metrics

	// polls are serialised since the client's jar holds one session
	mu sync.Mutex
}

// New validates cfg and creates a Poller with its own transport.
func New(cfg Config, metrics *Metrics) (*Poller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := transport.New(
		transport.WithCacheWindow(cfg.CacheWindow),
		transport.WithCacheCounter(metrics.cacheCounter()),
	)
	client := apsystems.New(
		t,
		apsystems.WithDashboardURL(cfg.DashboardURL),
		apsystems.WithLegacyURL(cfg.LegacyURL),
	)
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		metrics: metrics,
	}, nil
}

// Info returns the accessory description.
func (p *Poller) Info() types.AccessoryInfo {
	info := p.cfg.Info
	info.Kind = p.cfg.Kind
	info.Mode = p.cfg.Mode()
	return info
}

// GetAccessoryValue returns the current reading, 0 on any degraded path.
func (p *Poller) GetAccessoryValue(ctx context.Context) float64 {
	return p.Poll(ctx).Value
}

// Poll fetches and normalizes one reading. It never returns an error; the
// Outcome and Reason of the result say why a value is 0.
func (p *Poller) Poll(ctx context.Context) types.Reading {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := p.cfg.Mode()
	ctx = log.WithAttrs(ctx, slog.String("accessory", p.cfg.Info.Name), slog.String("mode", string(mode)))

	var reading types.Reading
	switch mode {
	case types.ModeLegacy:
		reading = p.pollLegacy(ctx)
	default:
		reading = p.pollSession(ctx)
	}
	reading.Kind = p.cfg.Kind
	reading.Mode = mode

	if reading.Degraded() {
		log.Ctx(ctx).WarnContext(
			ctx,
			"poll degraded to zero",
			slog.String("outcome", string(reading.Outcome)),
			slog.String("reason", reading.Reason),
		)
	} else {
		log.Ctx(ctx).DebugContext(ctx, "polled reading", slog.Float64("value", reading.Value), slog.String("unit", p.cfg.Kind.Unit()))
	}
	p.metrics.observe(reading)
	return reading
}

func (p *Poller) pollLegacy(ctx context.Context) types.Reading {
	if p.cfg.ECUID == "" {
		return degraded(apsystems.ErrNoCredentials)
	}
	series, err := p.client.FetchLegacyPower(ctx, p.cfg.ECUID)
	if err != nil {
		return degraded(err)
	}
	return types.Reading{
		Value:   apsystems.Normalize(p.cfg.Kind, series),
		Outcome: types.OutcomeOK,
	}
}

func (p *Poller) pollSession(ctx context.Context) types.Reading {
	if p.cfg.LoginURL == "" && p.cfg.UserID == "" {
		return degraded(apsystems.ErrNoCredentials)
	}
	session, err := p.client.AcquireSession(ctx, p.cfg.LoginURL, p.cfg.UserID)
	if err != nil {
		return degraded(err)
	}
	if session.Empty() {
		return degraded(apsystems.ErrAuthFailed)
	}
	series, err := p.client.FetchDailyEnergy(ctx, session)
	if err != nil {
		return degraded(err)
	}
	return types.Reading{
		Value:   apsystems.Normalize(p.cfg.Kind, series),
		Outcome: types.OutcomeOK,
	}
}

func degraded(err error) types.Reading {
	return types.Reading{
		Outcome: outcomeFor(err),
		Reason:  err.Error(),
	}
}

func outcomeFor(err error) types.Outcome {
	switch {
	case errors.Is(err, apsystems.ErrNoCredentials):
		return types.OutcomeMissingCredentials
	case errors.Is(err, apsystems.ErrAuthFailed):
		return types.OutcomeAuthFailed
	case errors.Is(err, apsystems.ErrInvalidSession):
		return types.OutcomeInvalidSession
	case errors.Is(err, apsystems.ErrLegacyRetired):
		return types.OutcomeLegacyRetired
	case errors.Is(err, apsystems.ErrNoData):
		return types.OutcomeNoData
	}
	return types.OutcomeTransportError
}
