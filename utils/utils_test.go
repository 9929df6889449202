package utils_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArkLabsHQ/dunder/utils"
	"github.com/stretchr/testify/require"
)

func TestUtils(t *testing.T) {
	testRetry(t)
	testPubkeys(t)
	testIsValidUrls(t)
	testValidateUrls(t)
}

func testRetry(t *testing.T) {
	t.Run("retry", func(t *testing.T) {
		t.Run("done", func(t *testing.T) {
			var calls atomic.Int32
			err := utils.Retry(context.Background(), 10*time.Millisecond, func(context.Context) (bool, error) {
				return calls.Add(1) == 3, nil
			})
			require.NoError(t, err)
			require.Equal(t, int32(3), calls.Load())
		})

		t.Run("error", func(t *testing.T) {
			expected := errors.New("boom")
			err := utils.Retry(context.Background(), 10*time.Millisecond, func(context.Context) (bool, error) {
				return false, expected
			})
			require.ErrorIs(t, err, expected)
		})

		t.Run("timeout", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			err := utils.Retry(ctx, 10*time.Millisecond, func(context.Context) (bool, error) {
				return false, nil
			})
			require.ErrorIs(t, err, utils.ErrTimedOut)
		})

		t.Run("canceled", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := utils.Retry(ctx, 10*time.Millisecond, func(context.Context) (bool, error) {
				return false, nil
			})
			require.ErrorIs(t, err, context.Canceled)
		})
	})
}

func testPubkeys(t *testing.T) {
	t.Run("pubkeys", func(t *testing.T) {
		// secp256k1 generator point
		valid := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
		require.True(t, utils.IsValidPubkey(valid))
		require.False(t, utils.IsValidPubkey(""))
		require.False(t, utils.IsValidPubkey("zz"))
		require.False(t, utils.IsValidPubkey(valid[:64]))
		require.False(t, utils.IsValidPubkey("05"+valid[2:]))
	})
}

func testIsValidUrls(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty", input: "", want: false},
		{name: "no host", input: "acme", want: false},
		{name: "hostname only", input: "acme.com", want: false},
		{name: "host and port", input: "acme.com:7070", want: true},
		{name: "localhost port", input: "localhost:7070", want: true},
		{name: "http", input: "http://acme.com", want: true},
		{name: "https with port", input: "https://acme.com:7070", want: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, utils.IsValidURL(tc.input))
		})
	}
}

func testValidateUrls(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expect      string
		errContains string
	}{
		{name: "with scheme and port", input: "http://lnd:10009", expect: "lnd:10009"},
		{name: "https with port", input: "https://acme.com:7070", expect: "acme.com:7070"},
		{name: "localhost with port", input: "localhost:10009", expect: "localhost:10009"},
		{name: "http without port", input: "http://acme.com", expect: "http://acme.com"},
		{name: "no scheme adds http", input: "acme.com", expect: "http://acme.com"},
		{name: "trims whitespace", input: "  https://trim.me  ", expect: "https://trim.me"},
		{name: "empty", input: "", errContains: "url is empty"},
		{name: "unsupported scheme", input: "ftp://acme.com", errContains: "unsupported scheme"},
		{name: "missing host", input: "http://", errContains: "missing host"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			validated, err := utils.ValidateURL(tc.input)
			if tc.errContains != "" {
				require.Error(t, err)
				require.ErrorContains(t, err, tc.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, validated)
		})
	}
}
