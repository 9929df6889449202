package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		datadir := t.TempDir()
		t.Setenv("DUNDER_DATADIR", datadir)
		t.Setenv("DUNDER_LND_URL", "lndconnect://localhost:10009?macaroon=abc")

		c, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, datadir, c.Datadir)
		require.Equal(t, sqliteDb, c.DbType)
		require.Equal(t, uint32(8089), c.HTTPPort)
		require.Equal(t, "mainnet", c.LndNetwork)
		require.Equal(t, 1.0, c.FeeSubsidyFactor)
		require.True(t, c.GetLnConnectionOpts().IsLndConnect())

		app := c.AppConfig()
		require.Equal(t, time.Minute, app.HtlcWait)
		require.Equal(t, time.Second, app.SettlementPollInterval)
		require.Equal(t, 5*time.Second, app.ChannelOpenRetryDelay)
		require.Equal(t, 10*time.Minute, app.AutoHealInterval)
		require.Equal(t, uint64(20_000), app.MinChannelSizeSat)
		require.Equal(t, uint64(1_000_000), app.MaximumPaymentSat)
		require.Equal(t, uint64(3), app.ChannelOpenAttempts)
		require.Equal(t, int32(1), app.FeeTargetConf)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DUNDER_DATADIR", t.TempDir())
		t.Setenv("DUNDER_DB_TYPE", badgerDb)
		t.Setenv("DUNDER_LND_URL", "https://lnd:10009")
		t.Setenv("DUNDER_LND_DATADIR", "/tmp/lnd")
		t.Setenv("DUNDER_HTLC_WAIT", "30")
		t.Setenv("DUNDER_FEE_SUBSIDY_FACTOR", "0.5")
		t.Setenv("DUNDER_ALLOW_ZERO_CONF_CHANNELS", "true")

		c, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, badgerDb, c.DbType)
		require.Equal(t, "lnd:10009", c.GetLnConnectionOpts().LnUrl)

		app := c.AppConfig()
		require.Equal(t, 30*time.Second, app.HtlcWait)
		require.Equal(t, 0.5, app.FeeSubsidyFactor)
		require.True(t, app.AllowZeroConfChannels)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("DUNDER_DATADIR", t.TempDir())
		t.Setenv("DUNDER_LND_URL", "lndconnect://localhost:10009")
		t.Setenv("DUNDER_DB_TYPE", "postgres")

		_, err := LoadConfig()
		require.ErrorContains(t, err, "unsupported db type")
	})

	t.Run("missing lnd url", func(t *testing.T) {
		t.Setenv("DUNDER_DATADIR", t.TempDir())
		t.Setenv("DUNDER_LND_URL", "")

		_, err := LoadConfig()
		require.ErrorContains(t, err, "missing LND URL")
	})
}
