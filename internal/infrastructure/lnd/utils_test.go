package lnd

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/stretchr/testify/require"
)

func TestUtils(t *testing.T) {
	t.Run("lndconnect url", testParseLndConnectUrl)
	t.Run("network params", testNetworkParams)
	t.Run("fee estimate outputs", testFeeEstimateOutputs)
	t.Run("channel point", testToOutPoint)
	t.Run("resolve action", testToResolveAction)
}

func testParseLndConnectUrl(t *testing.T) {
	certDer := selfSignedCert(t)
	macaroon := []byte{0x02, 0x01, 0x03, 0x6c, 0x6e, 0x64}
	cert := base64.RawURLEncoding.EncodeToString(certDer)
	mac := base64.RawURLEncoding.EncodeToString(macaroon)

	t.Run("valid", func(t *testing.T) {
		host, creds, macHex, err := parseLndConnectUrl(
			"lndconnect://127.0.0.1:10009?cert=" + cert + "&macaroon=" + mac,
		)
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:10009", host)
		require.NotNil(t, creds)
		require.Equal(t, hex.EncodeToString(macaroon), macHex)
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name string
			url  string
		}{
			{"wrong scheme", "http://127.0.0.1:10009?macaroon=" + mac},
			{"missing host", "lndconnect://?macaroon=" + mac},
			{"missing macaroon", "lndconnect://127.0.0.1:10009?cert=" + cert},
			{"bad cert", "lndconnect://127.0.0.1:10009?cert=AAAA&macaroon=" + mac},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				_, _, _, err := parseLndConnectUrl(f.url)
				require.Error(t, err)
			})
		}
	})
}

func testNetworkParams(t *testing.T) {
	fixtures := map[string]*chaincfg.Params{
		"":        &chaincfg.MainNetParams,
		"mainnet": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"signet":  &chaincfg.SigNetParams,
		"regtest": &chaincfg.RegressionNetParams,
		"simnet":  &chaincfg.SimNetParams,
	}
	for network, expected := range fixtures {
		params, err := networkParams(network)
		require.NoError(t, err)
		require.Equal(t, expected.Name, params.Name)
	}

	_, err := networkParams("litecoin")
	require.Error(t, err)
}

func testFeeEstimateOutputs(t *testing.T) {
	outputs, err := feeEstimateOutputs(&chaincfg.RegressionNetParams, 1000000)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	amounts := make([]int64, 0, len(outputs))
	for addr, amount := range outputs {
		decoded, err := btcutil.DecodeAddress(addr, &chaincfg.RegressionNetParams)
		require.NoError(t, err)
		require.True(t, decoded.IsForNet(&chaincfg.RegressionNetParams))
		amounts = append(amounts, amount)
	}
	require.ElementsMatch(t, []int64{1000000, 10000}, amounts)
}

func testToOutPoint(t *testing.T) {
	txid := "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

	outpoint, err := toOutPoint(&lnrpc.ChannelPoint{
		FundingTxid: &lnrpc.ChannelPoint_FundingTxidStr{FundingTxidStr: txid},
		OutputIndex: 1,
	})
	require.NoError(t, err)
	require.Equal(t, txid+":1", outpoint.String())

	fromBytes, err := toOutPoint(&lnrpc.ChannelPoint{
		FundingTxid: &lnrpc.ChannelPoint_FundingTxidBytes{
			FundingTxidBytes: outpoint.Hash.CloneBytes(),
		},
		OutputIndex: 1,
	})
	require.NoError(t, err)
	require.Equal(t, outpoint.String(), fromBytes.String())

	_, err = toOutPoint(&lnrpc.ChannelPoint{
		FundingTxid: &lnrpc.ChannelPoint_FundingTxidStr{FundingTxidStr: "nothex"},
	})
	require.Error(t, err)
}

func testToResolveAction(t *testing.T) {
	require.Equal(t, routerrpc.ResolveHoldForwardAction_SETTLE, toResolveAction(ports.ForwardSettle))
	require.Equal(t, routerrpc.ResolveHoldForwardAction_FAIL, toResolveAction(ports.ForwardFail))
	require.Equal(t, routerrpc.ResolveHoldForwardAction_RESUME, toResolveAction(ports.ForwardResume))
}

func selfSignedCert(t *testing.T) []byte {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"lnd autogenerated cert"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}
