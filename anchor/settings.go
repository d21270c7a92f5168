// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

import "math/big"

// TokenDecimalsValue scales whole-token settings values to the on-chain
// representation (18 decimals).
var TokenDecimalsValue = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ProtocolSettings holds the staking protocol parameters. They are plain
// values; the components that consume them own the related invariants.
type ProtocolSettings struct {
	// The minimum deposit to register a validator.
	MinimumValidatorDeposit *big.Int
	// The minimum deposit to register a delegator to a validator.
	MinimumDelegatorDeposit *big.Int
	// The minimum total stake for the appchain to go booting.
	MinimumTotalStakeForBooting *big.Int
	// The minimum number of validators for the appchain to go booting.
	MinimumValidatorCount uint64
	// The maximum number of validators a single delegator may delegate to.
	MaximumValidatorsPerDelegator uint64
	// The unlock period (in days) of a validator's unbonded deposit.
	UnlockPeriodOfValidatorDeposit uint64
	// The unlock period (in days) of a delegator's unbonded deposit.
	UnlockPeriodOfDelegatorDeposit uint64
	// The number of eras a reward stays withdrawable before it is forfeited.
	MaximumEraCountOfUnwithdrawnReward uint64
	// The percent of a delegator's reward retained by its validator.
	DelegationFeePercent uint64
}

// DefaultProtocolSettings returns the protocol parameters the anchor boots
// with before any governance change.
func DefaultProtocolSettings() *ProtocolSettings {
	return &ProtocolSettings{
		MinimumValidatorDeposit:            tokens(10_000),
		MinimumDelegatorDeposit:            tokens(1_000),
		MinimumTotalStakeForBooting:        tokens(500_000),
		MinimumValidatorCount:              13,
		MaximumValidatorsPerDelegator:      16,
		UnlockPeriodOfValidatorDeposit:     21,
		UnlockPeriodOfDelegatorDeposit:     7,
		MaximumEraCountOfUnwithdrawnReward: 84,
		DelegationFeePercent:               20,
	}
}

// ValidatorUnlockDuration returns the unlock period of a validator deposit as
// a nanosecond delta.
func (s *ProtocolSettings) ValidatorUnlockDuration() uint64 {
	return s.UnlockPeriodOfValidatorDeposit * SecondsOfADay * NanoSecondsMultiple
}

// DelegatorUnlockDuration returns the unlock period of a delegator deposit as
// a nanosecond delta.
func (s *ProtocolSettings) DelegatorUnlockDuration() uint64 {
	return s.UnlockPeriodOfDelegatorDeposit * SecondsOfADay * NanoSecondsMultiple
}

// AppchainSettings holds parameters of the anchored appchain itself.
type AppchainSettings struct {
	ChainSpec    string
	RawChainSpec string
	BootNodes    string
	RPCEndpoint  string
	EraReward    *big.Int
}

// AnchorSettings holds parameters of the anchor deployment.
type AnchorSettings struct {
	TokenPriceMaintainerAccount AccountID
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), TokenDecimalsValue)
}
