// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking holds the immutable staking facts, the append-only ledger
// recording them, and the unbonded stake references gating withdrawals.
package staking

import (
	"math/big"

	"github.com/anchornet/anchor/anchor"
)

// FactKind tags the variant of a staking fact. The set is closed; every
// consumer dispatches with an exhaustive switch.
type FactKind uint8

const (
	ValidatorRegistered FactKind = iota
	StakeIncreased
	StakeDecreased
	ValidatorUnbonded
	DelegationEnabled
	DelegationDisabled
	DelegatorRegistered
	DelegationIncreased
	DelegationDecreased
	DelegatorUnbonded
)

func (k FactKind) String() string {
	switch k {
	case ValidatorRegistered:
		return "ValidatorRegistered"
	case StakeIncreased:
		return "StakeIncreased"
	case StakeDecreased:
		return "StakeDecreased"
	case ValidatorUnbonded:
		return "ValidatorUnbonded"
	case DelegationEnabled:
		return "DelegationEnabled"
	case DelegationDisabled:
		return "DelegationDisabled"
	case DelegatorRegistered:
		return "DelegatorRegistered"
	case DelegationIncreased:
		return "DelegationIncreased"
	case DelegationDecreased:
		return "DelegationDecreased"
	case DelegatorUnbonded:
		return "DelegatorUnbonded"
	default:
		return "Unknown"
	}
}

// Fact is one immutable stake-affecting action. It is a flattened tagged
// variant: Kind decides which fields are meaningful.
type Fact struct {
	Kind FactKind

	ValidatorID           anchor.AccountID
	ValidatorIDInAppchain anchor.AppchainAccountID // ValidatorRegistered only
	DelegatorID           anchor.AccountID         // delegator facts only
	Amount                *big.Int                 // zero for enable/disable
	CanBeDelegatedTo      bool                     // ValidatorRegistered only
}

// IsValidatorDeposit reports whether the fact releases a validator deposit,
// as opposed to a delegator deposit, for unlock-period purposes.
func (f *Fact) IsValidatorDeposit() bool {
	return f.Kind == StakeDecreased || f.Kind == ValidatorUnbonded
}

// ReleasesStake reports whether the fact makes a deposit amount claimable
// after the unlock period.
func (f *Fact) ReleasesStake() bool {
	switch f.Kind {
	case StakeDecreased, ValidatorUnbonded, DelegationDecreased, DelegatorUnbonded:
		return true
	default:
		return false
	}
}

// NewValidatorRegistered builds the fact recording a validator registration.
func NewValidatorRegistered(validatorID anchor.AccountID, appchainID anchor.AppchainAccountID, amount *big.Int, canBeDelegatedTo bool) *Fact {
	return &Fact{
		Kind:                  ValidatorRegistered,
		ValidatorID:           validatorID,
		ValidatorIDInAppchain: appchainID,
		Amount:                cloneAmount(amount),
		CanBeDelegatedTo:      canBeDelegatedTo,
	}
}

// NewStakeChange builds a StakeIncreased, StakeDecreased or ValidatorUnbonded
// fact for the given validator.
func NewStakeChange(kind FactKind, validatorID anchor.AccountID, amount *big.Int) *Fact {
	return &Fact{Kind: kind, ValidatorID: validatorID, Amount: cloneAmount(amount)}
}

// NewDelegationFlag builds a DelegationEnabled or DelegationDisabled fact.
func NewDelegationFlag(kind FactKind, validatorID anchor.AccountID) *Fact {
	return &Fact{Kind: kind, ValidatorID: validatorID, Amount: new(big.Int)}
}

// NewDelegationChange builds any of the delegator facts for the given
// (delegator, validator) pair.
func NewDelegationChange(kind FactKind, delegatorID, validatorID anchor.AccountID, amount *big.Int) *Fact {
	return &Fact{
		Kind:        kind,
		DelegatorID: delegatorID,
		ValidatorID: validatorID,
		Amount:      cloneAmount(amount),
	}
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// History is a ledger-stored fact with its dense index and the chain position
// at which it was recorded. Never mutated once stored.
type History struct {
	Fact       Fact
	Index      uint64
	RecordedAt anchor.RecordedAt
}
