// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validatorset maintains the live snapshot of validators and
// delegators for the era under accumulation, folding staking facts into it.
package validatorset

import (
	"math/big"

	"github.com/anchornet/anchor/anchor"
)

// Validator is one registered validator of the set.
// Invariant: TotalStake = DepositAmount + sum of all delegations to it.
type Validator struct {
	ValidatorID           anchor.AccountID
	ValidatorIDInAppchain anchor.AppchainAccountID
	RegisteredAt          anchor.RecordedAt
	DepositAmount         *big.Int
	TotalStake            *big.Int
	CanBeDelegatedTo      bool
}

// Delegator is one delegation entity, keyed by the (delegator, validator)
// pair. A delegator holds an independent entity per validator it delegates
// to.
type Delegator struct {
	DelegatorID   anchor.AccountID
	ValidatorID   anchor.AccountID
	RegisteredAt  anchor.RecordedAt
	DepositAmount *big.Int
}

func (v *Validator) clone() *Validator {
	c := *v
	c.DepositAmount = new(big.Int).Set(v.DepositAmount)
	c.TotalStake = new(big.Int).Set(v.TotalStake)
	return &c
}

func (d *Delegator) clone() *Delegator {
	c := *d
	c.DepositAmount = new(big.Int).Set(d.DepositAmount)
	return &c
}
