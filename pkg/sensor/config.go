package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"github.com/raterudder/apsystems-sensor/pkg/apsystems"
	"github.com/raterudder/apsystems-sensor/pkg/log"
	"github.com/raterudder/apsystems-sensor/pkg/transport"
	"github.com/raterudder/apsystems-sensor/pkg/types"
)

// Config describes one accessory.
type Config struct {
	Info     types.AccessoryInfo
	Kind     types.ReadingKind
	Legacy   bool
	ECUID    string
	LoginURL string
	UserID   string

	DashboardURL string
	LegacyURL    string
	CacheWindow  time.Duration
}

// Mode returns which vendor API the accessory polls.
func (c Config) Mode() types.Mode {
	if c.Legacy {
		return types.ModeLegacy
	}
	return types.ModeSession
}

// Validate ensures the accessory can be polled at all. This is the only
// failure that stops the process; everything after startup degrades to 0.
func (c Config) Validate() error {
	switch c.Kind {
	case types.ReadingWatts, types.ReadingKwh:
	default:
		return fmt.Errorf("unknown reading kind %q (available: Watts, Kwh)", c.Kind)
	}
	if c.Legacy {
		if c.ECUID == "" {
			return errors.New("ecu-id is required in legacy mode")
		}
	} else if c.LoginURL == "" && c.UserID == "" {
		return errors.New("login-url or user-id is required")
	}
	if err := c.Info.Lux.Validate(); err != nil {
		return err
	}
	return nil
}

// fileConfig mirrors the accessory YAML file. Only keys that are present
// override the flag values.
type fileConfig struct {
	Name         *string          `yaml:"name"`
	Manufacturer *string          `yaml:"manufacturer"`
	Model        *string          `yaml:"model"`
	Serial       *string          `yaml:"serial"`
	Kind         *string          `yaml:"kind"`
	Legacy       *bool            `yaml:"legacy"`
	ECUID        *string          `yaml:"ecuId"`
	LoginURL     *string          `yaml:"loginUrl"`
	UserID       *string          `yaml:"userId"`
	Lux          *types.LuxBounds `yaml:"lux"`
	DashboardURL *string          `yaml:"dashboardUrl"`
	LegacyURL    *string          `yaml:"legacyUrl"`
}

// ApplyFile overrides c with any values set in the YAML file at path.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read accessory config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse accessory config (%s): %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&c.Info.Name, fc.Name)
	setString(&c.Info.Manufacturer, fc.Manufacturer)
	setString(&c.Info.Model, fc.Model)
	setString(&c.Info.Serial, fc.Serial)
	setString(&c.ECUID, fc.ECUID)
	setString(&c.LoginURL, fc.LoginURL)
	setString(&c.UserID, fc.UserID)
	setString(&c.DashboardURL, fc.DashboardURL)
	setString(&c.LegacyURL, fc.LegacyURL)
	if fc.Kind != nil {
		c.Kind = parseKind(*fc.Kind)
	}
	if fc.Legacy != nil {
		c.Legacy = *fc.Legacy
	}
	if fc.Lux != nil {
		c.Info.Lux = *fc.Lux
	}
	return nil
}

// parseKind leaves an unknown kind in place for Validate to report.
func parseKind(s string) types.ReadingKind {
	k, err := types.ParseReadingKind(s)
	if err != nil {
		return types.ReadingKind(s)
	}
	return k
}

// Configured registers the accessory flags and returns the config they fill in
// once lflag.Configure is called.
func Configured() *Config {
	cfg := &Config{}

	name := lflag.String("accessory-name", "Solar Production", "Name of the accessory shown by the host")
	manufacturer := lflag.String("accessory-manufacturer", "APsystems", "Manufacturer shown by the host")
	model := lflag.String("accessory-model", "EMA", "Model shown by the host")
	serial := lflag.String("accessory-serial", "", "Serial number shown by the host")
	kind := lflag.String("reading-kind", string(types.ReadingWatts), "Reading to report (Watts or Kwh)")
	legacy := lflag.Bool("legacy-mode", false, "Poll the legacy ECU endpoint instead of the dashboard")
	ecuID := lflag.String("ecu-id", "", "ECU identifier, required in legacy mode")
	loginURL := lflag.String("login-url", "", "Full demo login url for the dashboard")
	userID := lflag.String("user-id", "", "Demo user id used to build the login url if login-url is empty")
	lux := types.DefaultLuxBounds
	lflag.JSON(&lux, "lux-bounds", lux, "JSON object with min and max of the light sensor range")
	dashboardURL := lflag.String("dashboard-url", apsystems.DefaultDashboardURL, "Base url of the EMA dashboard")
	legacyURL := lflag.String("legacy-url", apsystems.DefaultLegacyURL, "Base url of the legacy EMA API")
	cacheWindow := lflag.Duration("cache-window", transport.DefaultCacheWindow, "How long GET responses are reused")
	accessoryConfig := lflag.String("accessory-config", "", "Optional YAML file overriding the accessory flags")

	lflag.Do(func() {
		cfg.Info = types.AccessoryInfo{
			Name:         *name,
			Manufacturer: *manufacturer,
			Model:        *model,
			Serial:       *serial,
			Lux:          lux,
		}
		cfg.Kind = parseKind(*kind)
		cfg.Legacy = *legacy
		cfg.ECUID = *ecuID
		cfg.LoginURL = *loginURL
		cfg.UserID = *userID
		cfg.DashboardURL = *dashboardURL
		cfg.LegacyURL = *legacyURL
		cfg.CacheWindow = *cacheWindow

		if *accessoryConfig != "" {
			if err := cfg.ApplyFile(*accessoryConfig); err != nil {
				log.Ctx(context.Background()).Error("failed to load accessory config", slog.Any("error", err))
				os.Exit(1)
			}
		}
	})

	return cfg
}
