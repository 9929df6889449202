package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ArkLabsHQ/dunder/internal/core/application"
	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/internal/interface/web/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeLspService struct {
	ready bool
	err   error

	registered types.RegisterRequest
}

func (f *fakeLspService) IsReady() bool { return f.ready }

func (f *fakeLspService) GetServiceStatus(_ context.Context) (*application.ServiceStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &application.ServiceStatus{
		Status:            true,
		ApproxFeeSat:      1000,
		MinimumPaymentSat: 20_000,
		MaximumPaymentSat: 1_000_000,
		Peer:              "02aa@127.0.0.1:9735",
	}, nil
}

func (f *fakeLspService) Register(
	_ context.Context, pubkey, signature, preimage string, amountSat uint64,
) (*application.RegisterResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = types.RegisterRequest{
		Pubkey: pubkey, Signature: signature, Preimage: preimage, AmountSat: amountSat,
	}
	return &application.RegisterResult{
		ServicePubkey:             "02aa",
		FakeChannelId:             domain.ChannelId(18446744073709551615),
		CltvExpiryDelta:           40,
		FeeBaseMsat:               1,
		FeeProportionalMillionths: 1,
	}, nil
}

func (f *fakeLspService) CheckStatus(
	_ context.Context, _, _ string,
) (*application.CheckStatusResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &application.CheckStatusResult{
		State:              domain.ChannelRequestRegistered,
		UnclaimedAmountSat: 5000,
	}, nil
}

func (f *fakeLspService) Claim(_ context.Context, _, _ string) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return 5000, nil
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("health", func(t *testing.T) {
		svc := &fakeLspService{}
		router := NewRouter(svc, "v0.1.0", false)

		rec := doRequest(t, router, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		svc.ready = true
		rec = doRequest(t, router, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[types.HealthResponse](t, rec)
		require.Equal(t, types.StatusOK, res.Status)
		require.Equal(t, "v0.1.0", res.Version)
	})

	t.Run("service status", func(t *testing.T) {
		router := NewRouter(&fakeLspService{}, "", false)

		rec := doRequest(t, router, http.MethodGet, "/service-status", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[types.ServiceStatusResponse](t, rec)
		require.True(t, res.Status)
		require.Equal(t, uint64(20_000), res.MinimumPaymentSat)
		require.Equal(t, "02aa@127.0.0.1:9735", res.Peer)
	})

	t.Run("register", func(t *testing.T) {
		svc := &fakeLspService{}
		router := NewRouter(svc, "", false)

		body := types.RegisterRequest{
			Pubkey: "02bb", Signature: "sig", Preimage: "00", AmountSat: 50_000,
		}
		rec := doRequest(t, router, http.MethodPost, "/register", body)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, body, svc.registered)

		res := decode[types.RegisterResponse](t, rec)
		require.Equal(t, types.StatusOK, res.Status)
		require.Equal(t, "18446744073709551615", res.FakeChannelId)
		require.Equal(t, uint32(40), res.CltvExpiryDelta)
	})

	t.Run("check status", func(t *testing.T) {
		router := NewRouter(&fakeLspService{}, "", false)

		rec := doRequest(t, router, http.MethodPost, "/check-status", types.SignedRequest{
			Pubkey: "02bb", Signature: "sig",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[types.CheckStatusResponse](t, rec)
		require.Equal(t, "REGISTERED", res.State)
		require.Equal(t, uint64(5000), res.UnclaimedAmountSat)
	})

	t.Run("claim", func(t *testing.T) {
		router := NewRouter(&fakeLspService{}, "", false)

		rec := doRequest(t, router, http.MethodPost, "/claim", types.SignedRequest{
			Pubkey: "02bb", Signature: "sig",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[types.ClaimResponse](t, rec)
		require.Equal(t, types.StatusOK, res.Status)
		require.Equal(t, uint64(5000), res.AmountSat)
	})

	t.Run("invalid body", func(t *testing.T) {
		router := NewRouter(&fakeLspService{}, "", false)

		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, types.StatusError, decode[types.ErrorResponse](t, rec).Status)
	})

	t.Run("errors", func(t *testing.T) {
		fixtures := []struct {
			err    error
			code   int
			reason string
		}{
			{application.ErrPubkeyMismatch, http.StatusBadRequest, application.ErrPubkeyMismatch.Error()},
			{
				fmt.Errorf("%w, minimum is 20000 sat", application.ErrAmountTooLow),
				http.StatusBadRequest, "amount too low, minimum is 20000 sat",
			},
			{application.ErrPeerNotConnected, http.StatusBadRequest, application.ErrPeerNotConnected.Error()},
			{application.ErrFeesTooHigh, http.StatusServiceUnavailable, application.ErrFeesTooHigh.Error()},
			{application.ErrServiceNotStarted, http.StatusServiceUnavailable, application.ErrServiceNotStarted.Error()},
			{fmt.Errorf("database is locked"), http.StatusInternalServerError, "internal error"},
		}
		for _, f := range fixtures {
			t.Run(f.err.Error(), func(t *testing.T) {
				router := NewRouter(&fakeLspService{err: f.err}, "", false)

				rec := doRequest(t, router, http.MethodPost, "/claim", types.SignedRequest{})
				require.Equal(t, f.code, rec.Code)
				res := decode[types.ErrorResponse](t, rec)
				require.Equal(t, types.StatusError, res.Status)
				require.Equal(t, f.reason, res.Reason)
			})
		}
	})
}
