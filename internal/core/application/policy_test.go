package application

import (
	"testing"

	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/stretchr/testify/require"
)

func TestPolicy(t *testing.T) {
	cfg := Config{
		MinChannelSizeSat:        10_000,
		MinimumPaymentMultiplier: 10,
		MaximumPaymentSat:        1_000_000,
		FeeMaxSat:                50_000,
		FeeMaxSatPerVByte:        100,
		FeeSubsidyFactor:         0.5,
		FundingSafetyMarginSat:   10_000,
	}

	t.Run("subsidized fee", func(t *testing.T) {
		require.Equal(t, uint64(501), cfg.subsidizedFeeSat(1001))
		require.Equal(t, uint64(0), cfg.subsidizedFeeSat(0))
	})

	t.Run("minimum payment", func(t *testing.T) {
		require.Equal(t, uint64(10_000), cfg.minimumPaymentSat(1000))
		require.Equal(t, uint64(25_000), cfg.minimumPaymentSat(5000))
	})

	t.Run("fees too high", func(t *testing.T) {
		require.False(t, cfg.feesTooHigh(ports.FeeEstimate{FeeSat: 50_000, FeerateSatPerByte: 100}))
		require.True(t, cfg.feesTooHigh(ports.FeeEstimate{FeeSat: 50_001, FeerateSatPerByte: 1}))
		require.True(t, cfg.feesTooHigh(ports.FeeEstimate{FeeSat: 1, FeerateSatPerByte: 101}))
	})

	t.Run("push amount", func(t *testing.T) {
		require.Equal(t, uint64(99_500), cfg.pushAmountSat(100_000, 1000))
		require.Equal(t, uint64(0), cfg.pushAmountSat(400, 1000))
	})

	t.Run("local funding", func(t *testing.T) {
		require.Equal(t, uint64(1_010_000), cfg.localFundingSat(99_500))
		require.Equal(t, uint64(2_010_000), cfg.localFundingSat(2_000_000))
	})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().validate())

	fixtures := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no htlc wait", func(c *Config) { c.HtlcWait = 0 }},
		{"no poll interval", func(c *Config) { c.SettlementPollInterval = 0 }},
		{"no maximum", func(c *Config) { c.MaximumPaymentSat = 0 }},
		{"min above max", func(c *Config) { c.MinChannelSizeSat = c.MaximumPaymentSat + 1 }},
		{"negative subsidy", func(c *Config) { c.FeeSubsidyFactor = -1 }},
		{"no target conf", func(c *Config) { c.FeeTargetConf = 0 }},
		{"no open attempts", func(c *Config) { c.ChannelOpenAttempts = 0 }},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			cfg := testConfig()
			f.mutate(&cfg)
			require.Error(t, cfg.validate())
		})
	}
}
