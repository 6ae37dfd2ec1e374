package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// duration lets TOML files use "750ms"/"12s" syntax.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// fileConfig is the TOML shape. Every field is optional; absent fields keep
// their default.
type fileConfig struct {
	Weights *Weights `toml:"weights"`

	BotThreshold   *float64  `toml:"bot_threshold"`
	HumanThreshold *float64  `toml:"human_threshold"`
	TickInterval   *duration `toml:"tick_interval"`

	MinTrackingTime  *duration `toml:"min_tracking_time"`
	MinFillTime      *duration `toml:"min_fill_time"`
	MinPointerEvents *int      `toml:"min_pointer_events"`
	RequirePointer   *bool     `toml:"require_pointer"`
	RequiredChannels *int      `toml:"required_channels"`

	CompositeAcceptScore *float64 `toml:"composite_accept_score"`
	HoneypotField        *string  `toml:"honeypot_field"`

	MinSampleSize             *int     `toml:"min_sample_size"`
	SuspiciousLinearity       *float64 `toml:"suspicious_linearity"`
	VelocityVarianceScale     *float64 `toml:"velocity_variance_scale"`
	AccelerationVarianceScale *float64 `toml:"acceleration_variance_scale"`
	SwipeVarianceScale        *float64 `toml:"swipe_variance_scale"`
	ClickVarianceScale        *float64 `toml:"click_variance_scale"`
	KeystrokeVarianceScale    *float64 `toml:"keystroke_variance_scale"`
	DelayVarianceScale        *float64 `toml:"delay_variance_scale"`
}

// LoadFile reads TOML overrides on top of the defaults and validates the
// result.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	fc.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.Weights != nil {
		cfg.Weights = *fc.Weights
	}
	if fc.BotThreshold != nil {
		cfg.BotThreshold = *fc.BotThreshold
	}
	if fc.HumanThreshold != nil {
		cfg.HumanThreshold = *fc.HumanThreshold
	}
	if fc.TickInterval != nil {
		cfg.TickInterval = fc.TickInterval.Duration
	}
	if fc.MinTrackingTime != nil {
		cfg.MinTrackingTime = fc.MinTrackingTime.Duration
	}
	if fc.MinFillTime != nil {
		cfg.MinFillTime = fc.MinFillTime.Duration
	}
	if fc.MinPointerEvents != nil {
		cfg.MinPointerEvents = *fc.MinPointerEvents
	}
	if fc.RequirePointer != nil {
		cfg.RequirePointer = *fc.RequirePointer
	}
	if fc.RequiredChannels != nil {
		cfg.RequiredChannels = *fc.RequiredChannels
	}
	if fc.CompositeAcceptScore != nil {
		cfg.CompositeAcceptScore = *fc.CompositeAcceptScore
	}
	if fc.HoneypotField != nil {
		cfg.HoneypotField = *fc.HoneypotField
	}
	if fc.MinSampleSize != nil {
		cfg.MinSampleSize = *fc.MinSampleSize
	}
	if fc.SuspiciousLinearity != nil {
		cfg.SuspiciousLinearity = *fc.SuspiciousLinearity
	}
	if fc.VelocityVarianceScale != nil {
		cfg.VelocityVarianceScale = *fc.VelocityVarianceScale
	}
	if fc.AccelerationVarianceScale != nil {
		cfg.AccelerationVarianceScale = *fc.AccelerationVarianceScale
	}
	if fc.SwipeVarianceScale != nil {
		cfg.SwipeVarianceScale = *fc.SwipeVarianceScale
	}
	if fc.ClickVarianceScale != nil {
		cfg.ClickVarianceScale = *fc.ClickVarianceScale
	}
	if fc.KeystrokeVarianceScale != nil {
		cfg.KeystrokeVarianceScale = *fc.KeystrokeVarianceScale
	}
	if fc.DelayVarianceScale != nil {
		cfg.DelayVarianceScale = *fc.DelayVarianceScale
	}
}
