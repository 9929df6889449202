package lnd

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

const (
	lndconnectScheme = "lndconnect"
	tlsCertFile      = "tls.cert"
	adminMacaroon    = "admin.macaroon"
	maxMsgRecvSize   = 200 * 1024 * 1024
)

// getClient dials the node described by opts and returns the connection
// along with the hex encoded macaroon to attach to every call.
func getClient(opts domain.LnConnectionOpts) (*grpc.ClientConn, string, error) {
	var (
		host     string
		creds    credentials.TransportCredentials
		macaroon string
		err      error
	)

	if opts.IsLndConnect() {
		host, creds, macaroon, err = parseLndConnectUrl(opts.LnUrl)
	} else {
		host, creds, macaroon, err = readDatadir(opts.LnUrl, opts.LnDatadir, opts.Network)
	}
	if err != nil {
		return nil, "", err
	}

	conn, err := grpc.NewClient(
		host,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxMsgRecvSize)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to dial lnd at %s: %w", host, err)
	}
	return conn, macaroon, nil
}

func getCtx(ctx context.Context, macaroon string) context.Context {
	if macaroon == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "macaroon", macaroon)
}

// parseLndConnectUrl parses lndconnect://host:port?cert=...&macaroon=...
// where both cert (DER) and macaroon are base64url encoded.
func parseLndConnectUrl(
	lndconnectUrl string,
) (string, credentials.TransportCredentials, string, error) {
	u, err := url.Parse(lndconnectUrl)
	if err != nil {
		return "", nil, "", fmt.Errorf("invalid lndconnect url: %w", err)
	}
	if u.Scheme != lndconnectScheme {
		return "", nil, "", fmt.Errorf("invalid lndconnect url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", nil, "", fmt.Errorf("missing host in lndconnect url")
	}

	query := u.Query()
	macBytes, err := decodeBase64Url(query.Get("macaroon"))
	if err != nil || len(macBytes) <= 0 {
		return "", nil, "", fmt.Errorf("invalid macaroon in lndconnect url")
	}

	var creds credentials.TransportCredentials
	if certParam := query.Get("cert"); certParam != "" {
		certBytes, err := decodeBase64Url(certParam)
		if err != nil {
			return "", nil, "", fmt.Errorf("invalid cert in lndconnect url: %w", err)
		}
		cert, err := x509.ParseCertificate(certBytes)
		if err != nil {
			return "", nil, "", fmt.Errorf("failed to parse tls cert: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AddCert(cert)
		creds = credentials.NewClientTLSFromCert(pool, "")
	} else {
		// no cert means the node is behind a CA signed certificate
		pool, err := x509.SystemCertPool()
		if err != nil {
			return "", nil, "", fmt.Errorf("failed to load system cert pool: %w", err)
		}
		creds = credentials.NewClientTLSFromCert(pool, "")
	}

	return u.Host, creds, hex.EncodeToString(macBytes), nil
}

func readDatadir(
	lnUrl, datadir, network string,
) (string, credentials.TransportCredentials, string, error) {
	host := lnUrl
	if u, err := url.Parse(lnUrl); err == nil && u.Host != "" {
		host = u.Host
	}

	creds, err := credentials.NewClientTLSFromFile(filepath.Join(datadir, tlsCertFile), "")
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to load tls cert: %w", err)
	}

	macPath := filepath.Join(datadir, "data", "chain", "bitcoin", network, adminMacaroon)
	macBytes, err := os.ReadFile(macPath)
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to read macaroon: %w", err)
	}

	return host, creds, hex.EncodeToString(macBytes), nil
}

func decodeBase64Url(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func networkParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", chaincfg.MainNetParams.Name:
		return &chaincfg.MainNetParams, nil
	case "testnet", chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil
	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil
	case chaincfg.RegressionNetParams.Name, "regression":
		return &chaincfg.RegressionNetParams, nil
	case chaincfg.SimNetParams.Name:
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %s", network)
	}
}

// feeEstimateOutputs builds the outputs of the hypothetical funding tx used
// for fee estimation: the channel amount plus a change-sized output, both
// paying to fixed placeholder witness programs.
func feeEstimateOutputs(
	params *chaincfg.Params, amountSat uint64,
) (map[string]int64, error) {
	fundingAddr, err := placeholderAddress(params, 0x01)
	if err != nil {
		return nil, err
	}
	changeAddr, err := placeholderAddress(params, 0x02)
	if err != nil {
		return nil, err
	}
	return map[string]int64{
		fundingAddr: int64(amountSat),
		changeAddr:  10000,
	}, nil
}

func placeholderAddress(params *chaincfg.Params, b byte) (string, error) {
	program := make([]byte, 20)
	for i := range program {
		program[i] = b
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(program, params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
