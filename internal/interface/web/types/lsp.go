package types

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type ErrorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type ServiceStatusResponse struct {
	Status            bool   `json:"status"`
	ApproxFeeSat      uint64 `json:"approxFeeSat"`
	MinimumPaymentSat uint64 `json:"minimumPaymentSat"`
	MaximumPaymentSat uint64 `json:"maximumPaymentSat"`
	Peer              string `json:"peer"` // Format: "pubkey@host:port"
}

type RegisterRequest struct {
	Pubkey    string `json:"pubkey"`
	Signature string `json:"signature"` // lnd signmessage over "REGISTER"
	Preimage  string `json:"preimage"`
	AmountSat uint64 `json:"amountSat"`
}

type RegisterResponse struct {
	Status                    string `json:"status"`
	ServicePubkey             string `json:"servicePubkey"`
	FakeChannelId             string `json:"fakeChannelId"` // decimal short channel id
	CltvExpiryDelta           uint32 `json:"cltvExpiryDelta"`
	FeeBaseMsat               uint64 `json:"feeBaseMsat"`
	FeeProportionalMillionths uint64 `json:"feeProportionalMillionths"`
}

// SignedRequest is the body of /check-status and /claim, signed over
// "CHECKSTATUS" and "CLAIM" respectively.
type SignedRequest struct {
	Pubkey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

type CheckStatusResponse struct {
	State              string `json:"state"`
	UnclaimedAmountSat uint64 `json:"unclaimedAmountSat"`
}

type ClaimResponse struct {
	Status    string `json:"status"`
	AmountSat uint64 `json:"amountSat"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
