package web

import (
	"context"
	"net/http"

	"github.com/ArkLabsHQ/dunder/internal/core/application"
	"github.com/ArkLabsHQ/dunder/internal/interface/web/types"
	"github.com/gin-gonic/gin"
)

// LspService is what the wallet-facing api needs from the application.
type LspService interface {
	IsReady() bool
	GetServiceStatus(ctx context.Context) (*application.ServiceStatus, error)
	Register(
		ctx context.Context, pubkey, signature, preimage string, amountSat uint64,
	) (*application.RegisterResult, error)
	CheckStatus(ctx context.Context, pubkey, signature string) (*application.CheckStatusResult, error)
	Claim(ctx context.Context, pubkey, signature string) (uint64, error)
}

type handler struct {
	svc     LspService
	version string
}

func (h *handler) health(c *gin.Context) {
	if !h.svc.IsReady() {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{
			Status: types.StatusError, Version: h.version,
		})
		return
	}
	c.JSON(http.StatusOK, types.HealthResponse{Status: types.StatusOK, Version: h.version})
}

func (h *handler) serviceStatus(c *gin.Context) {
	status, err := h.svc.GetServiceStatus(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ServiceStatusResponse{
		Status:            status.Status,
		ApproxFeeSat:      status.ApproxFeeSat,
		MinimumPaymentSat: status.MinimumPaymentSat,
		MaximumPaymentSat: status.MaximumPaymentSat,
		Peer:              status.Peer,
	})
}

func (h *handler) register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	res, err := h.svc.Register(
		c.Request.Context(), req.Pubkey, req.Signature, req.Preimage, req.AmountSat,
	)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.RegisterResponse{
		Status:                    types.StatusOK,
		ServicePubkey:             res.ServicePubkey,
		FakeChannelId:             res.FakeChannelId.String(),
		CltvExpiryDelta:           res.CltvExpiryDelta,
		FeeBaseMsat:               res.FeeBaseMsat,
		FeeProportionalMillionths: res.FeeProportionalMillionths,
	})
}

func (h *handler) checkStatus(c *gin.Context) {
	var req types.SignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	res, err := h.svc.CheckStatus(c.Request.Context(), req.Pubkey, req.Signature)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.CheckStatusResponse{
		State:              string(res.State),
		UnclaimedAmountSat: res.UnclaimedAmountSat,
	})
}

func (h *handler) claim(c *gin.Context) {
	var req types.SignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	amount, err := h.svc.Claim(c.Request.Context(), req.Pubkey, req.Signature)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ClaimResponse{Status: types.StatusOK, AmountSat: amount})
}

func badRequest(c *gin.Context, reason string) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{Status: types.StatusError, Reason: reason})
}

// handleError maps application errors to status codes. Unexpected errors are
// attached to the context and never shown to the caller.
func handleError(c *gin.Context, err error) {
	switch {
	case application.IsValidationError(err):
		badRequest(c, err.Error())
	case application.IsServiceUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Status: types.StatusError, Reason: err.Error(),
		})
	default:
		// nolint
		c.Error(err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Status: types.StatusError, Reason: "internal error",
		})
	}
}
