package application

import (
	"fmt"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/domain"
)

const (
	registerMessage    = "REGISTER"
	claimMessage       = "CLAIM"
	checkStatusMessage = "CHECKSTATUS"
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type Config struct {
	// LndNode is the public host:port of the managed node.
	LndNode string

	HtlcWait               time.Duration
	SettlementPollInterval time.Duration

	MinChannelSizeSat        uint64
	MinimumPaymentMultiplier uint64
	MaximumPaymentSat        uint64

	FeeMaxSat         uint64
	FeeMaxSatPerVByte uint64
	FeeSubsidyFactor  float64
	FeeTargetConf     int32

	FundingSafetyMarginSat uint64
	ChannelOpenAttempts    uint64
	ChannelOpenRetryDelay  time.Duration
	AllowZeroConfChannels  bool

	CltvExpiryDelta           uint32
	FeeBaseMsat               uint64
	FeeProportionalMillionths uint64

	// AutoHealInterval of zero disables the periodic sweep, reconnecting
	// peers are still healed.
	AutoHealInterval     time.Duration
	StreamReconnectDelay time.Duration
}

func (c Config) validate() error {
	if c.HtlcWait <= 0 {
		return fmt.Errorf("htlc wait must be positive")
	}
	if c.SettlementPollInterval <= 0 {
		return fmt.Errorf("settlement poll interval must be positive")
	}
	if c.MaximumPaymentSat == 0 {
		return fmt.Errorf("maximum payment must be positive")
	}
	if c.MinChannelSizeSat > c.MaximumPaymentSat {
		return fmt.Errorf(
			"min channel size %d above maximum payment %d",
			c.MinChannelSizeSat, c.MaximumPaymentSat,
		)
	}
	if c.FeeSubsidyFactor < 0 {
		return fmt.Errorf("fee subsidy factor must not be negative")
	}
	if c.FeeTargetConf <= 0 {
		return fmt.Errorf("fee target conf must be positive")
	}
	if c.ChannelOpenAttempts == 0 {
		return fmt.Errorf("channel open attempts must be positive")
	}
	if c.AutoHealInterval < 0 {
		return fmt.Errorf("auto heal interval must not be negative")
	}
	return nil
}

type ServiceStatus struct {
	Status            bool
	ApproxFeeSat      uint64
	MinimumPaymentSat uint64
	MaximumPaymentSat uint64
	Peer              string
}

type RegisterResult struct {
	ServicePubkey             string
	FakeChannelId             domain.ChannelId
	CltvExpiryDelta           uint32
	FeeBaseMsat               uint64
	FeeProportionalMillionths uint64
}

type CheckStatusResult struct {
	State              domain.ChannelRequestStatus
	UnclaimedAmountSat uint64
}
