package application

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPubkey          = fmt.Errorf("invalid public key")
	ErrInvalidPreimage        = fmt.Errorf("invalid preimage, must be 32 bytes hex encoded")
	ErrPubkeyMismatch         = fmt.Errorf("public key mismatch")
	ErrPeerNotConnected       = fmt.Errorf("peer not connected")
	ErrAmountTooLow           = fmt.Errorf("amount too low")
	ErrAmountTooHigh          = fmt.Errorf("amount too high")
	ErrFeesTooHigh            = fmt.Errorf("fees too high, service temporarily closed")
	ErrFeeEstimateUnavailable = fmt.Errorf("fee estimate unavailable, try again later")
	ErrServiceNotStarted      = fmt.Errorf("service not started")
)

// IsValidationError tells whether err is caused by a bad request.
func IsValidationError(err error) bool {
	for _, e := range []error{
		ErrInvalidPubkey, ErrInvalidPreimage, ErrPubkeyMismatch,
		ErrPeerNotConnected, ErrAmountTooLow, ErrAmountTooHigh,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsServiceUnavailable tells whether err is a temporary refusal to serve.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrFeesTooHigh) ||
		errors.Is(err, ErrFeeEstimateUnavailable) ||
		errors.Is(err, ErrServiceNotStarted)
}
