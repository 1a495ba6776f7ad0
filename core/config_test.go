package orchestration

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected the default config to validate, got %v", err)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "non-positive silence threshold",
			mutate:    func(c *Config) { c.TurnDetector.SilenceThreshold = 0 },
			wantField: "TurnDetector.SilenceThreshold",
		},
		{
			name:      "negative max turn duration",
			mutate:    func(c *Config) { c.TurnDetector.MaxTurnDuration = -time.Second },
			wantField: "TurnDetector.MaxTurnDuration",
		},
		{
			name: "max turn duration below silence threshold",
			mutate: func(c *Config) {
				c.TurnDetector.SilenceThreshold = time.Second
				c.TurnDetector.MaxTurnDuration = time.Second
			},
			wantField: "TurnDetector.MaxTurnDuration",
		},
		{
			name:      "energy threshold out of range",
			mutate:    func(c *Config) { c.TurnDetector.BargeInEnergyThreshold = 1.5 },
			wantField: "TurnDetector.BargeInEnergyThreshold",
		},
		{
			name:      "negative barge-in debounce",
			mutate:    func(c *Config) { c.TurnDetector.BargeInMinDuration = -time.Millisecond },
			wantField: "TurnDetector.BargeInMinDuration",
		},
		{
			name:      "negative interruption word gate",
			mutate:    func(c *Config) { c.TurnDetector.MinInterruptionWords = -1 },
			wantField: "TurnDetector.MinInterruptionWords",
		},
		{
			name:      "negative false interruption timeout",
			mutate:    func(c *Config) { c.TurnDetector.FalseInterruptionTimeout = -time.Second },
			wantField: "TurnDetector.FalseInterruptionTimeout",
		},
		{
			name:      "unknown interruption policy",
			mutate:    func(c *Config) { c.InterruptionPolicy = InterruptionPolicy(42) },
			wantField: "InterruptionPolicy",
		},
		{
			name:      "negative retry attempts",
			mutate:    func(c *Config) { c.ProviderRetryAttempts = -1 },
			wantField: "ProviderRetryAttempts",
		},
		{
			name:      "negative retry backoff",
			mutate:    func(c *Config) { c.ProviderRetryBackoff = -time.Second },
			wantField: "ProviderRetryBackoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()
			if err == nil {
				t.Fatalf("expected validation to fail")
			}

			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected a config error, got %T", err)
			}
			if configErr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, configErr.Field)
			}
		})
	}
}

func TestZeroMaxTurnDurationDisablesTheFallback(t *testing.T) {
	config := DefaultConfig()
	config.TurnDetector.MaxTurnDuration = 0

	if err := config.Validate(); err != nil {
		t.Fatalf("expected zero max turn duration to validate, got %v", err)
	}
}

func TestNormalizeWordStripsTrailingPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Yeah.", "yeah"},
		{"OK!", "ok"},
		{"stop,", "stop"},
		{" mhm ", "mhm"},
		{"?!", ""},
	}

	for _, tt := range tests {
		if got := normalizeWord(tt.in); got != tt.want {
			t.Fatalf("normalizeWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
