package application

import (
	"math"

	"github.com/ArkLabsHQ/dunder/internal/core/ports"
)

// subsidizedFeeSat is the share of an on-chain fee charged to the payer.
func (c Config) subsidizedFeeSat(feeSat uint64) uint64 {
	return uint64(math.Ceil(float64(feeSat) * c.FeeSubsidyFactor))
}

func (c Config) minimumPaymentSat(feeSat uint64) uint64 {
	minimum := uint64(math.Ceil(
		float64(feeSat) * c.FeeSubsidyFactor * float64(c.MinimumPaymentMultiplier),
	))
	return max(minimum, c.MinChannelSizeSat)
}

func (c Config) feesTooHigh(fee ports.FeeEstimate) bool {
	return fee.FeerateSatPerByte > c.FeeMaxSatPerVByte || fee.FeeSat > c.FeeMaxSat
}

func (c Config) pushAmountSat(settledSat, feeSat uint64) uint64 {
	subsidy := c.subsidizedFeeSat(feeSat)
	if subsidy >= settledSat {
		return 0
	}
	return settledSat - subsidy
}

// localFundingSat always leaves room for the push amount and the reserve.
func (c Config) localFundingSat(pushSat uint64) uint64 {
	return max(c.MaximumPaymentSat, pushSat) + c.FundingSafetyMarginSat
}
