package config

import (
	"testing"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestLnConnectionOpts(t *testing.T) {
	t.Run("basic constraints", testBasicConstraints)
	t.Run("lnd with port", testLNDWithPort)
	t.Run("lndconnect URL", testLndConnectURL)
}

func testBasicConstraints(t *testing.T) {
	_, err := deriveLnConfig("", "", "")
	require.ErrorContains(t, err, "missing LND URL")

	_, err = deriveLnConfig("http://localhost:10009", "", "")
	require.ErrorContains(t, err, "LND URL provided without LND datadir")

	_, err = deriveLnConfig("lndconnect://abc", "/tmp/lnd", "")
	require.ErrorContains(t, err, "cannot set LND datadir with an lndconnect URL")

	_, err = deriveLnConfig("ftp://localhost:10009", "/tmp/lnd", "")
	require.ErrorContains(t, err, "invalid LND URL")
}

func testLNDWithPort(t *testing.T) {
	opts, err := deriveLnConfig("https://localhost:10009", "/tmp/lnd", "regtest")
	require.NoError(t, err)
	require.Equal(t, &domain.LnConnectionOpts{
		LnUrl:     "localhost:10009",
		LnDatadir: "/tmp/lnd",
		Network:   "regtest",
	}, opts)
	require.False(t, opts.IsLndConnect())

	opts, err = deriveLnConfig("lnd:10009", "/tmp/lnd/", "")
	require.NoError(t, err)
	require.Equal(t, "lnd:10009", opts.LnUrl)
	require.Equal(t, "/tmp/lnd", opts.LnDatadir)
}

func testLndConnectURL(t *testing.T) {
	opts, err := deriveLnConfig("lndconnect://abc", "", "mainnet")
	require.NoError(t, err)
	require.Equal(t, &domain.LnConnectionOpts{LnUrl: "lndconnect://abc", Network: "mainnet"}, opts)
	require.True(t, opts.IsLndConnect())
}
