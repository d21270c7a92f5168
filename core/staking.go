// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/staking"
	"github.com/anchornet/anchor/validatorset"
)

// release is one deposit a fact makes claimable after its unlock period.
type release struct {
	account anchor.AccountID
	amount  *big.Int
}

// recordFact validates the fact against the live set, then stages the ledger
// entry, the unbonded references of every released deposit, and the updated
// live set into one batch. Past the validation, any failure resynchronizes
// the in-memory state from the store.
func (a *AppchainAnchor) recordFact(fact *staking.Fact, releases ...release) error {
	at := a.now()
	if err := a.liveSet.Apply(fact, at, validatorset.LimitsOf(a.settings)); err != nil {
		return err
	}
	b := a.store.NewBatch()
	history, err := a.ledger.Append(b, fact, at)
	if err != nil {
		return a.resync(err)
	}
	// the unlock clock starts at the era following the current one
	nextEra := a.lifecycle.Histories().Count()
	for _, r := range releases {
		ref := staking.UnbondedStakeReference{
			EraNumber:           nextEra,
			StakingHistoryIndex: history.Index,
			Amount:              new(big.Int).Set(r.amount),
		}
		if err := a.unbonded.Add(b, r.account, ref); err != nil {
			return a.resync(err)
		}
	}
	if err := a.saveLiveSet(b); err != nil {
		return a.resync(err)
	}
	if err := a.commit(b); err != nil {
		return errors.Wrap(err, "commit staking fact")
	}
	metricRecordedFacts().Add(1)
	logger.Debug("staking fact recorded", "kind", fact.Kind, "index", history.Index)
	return nil
}

// RegisterValidator registers a new validator with its initial deposit.
func (a *AppchainAnchor) RegisterValidator(validatorID anchor.AccountID, appchainID anchor.AppchainAccountID, deposit *big.Int, canBeDelegatedTo bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := positive(deposit); err != nil {
		return err
	}
	if deposit.Cmp(a.settings.MinimumValidatorDeposit) < 0 {
		return errors.Errorf("deposit of %s is below the minimum validator deposit", validatorID)
	}
	if a.unbonded.Has(validatorID) {
		return errors.Errorf("account %s has unbonded stake pending withdrawal", validatorID)
	}
	return a.recordFact(staking.NewValidatorRegistered(validatorID, appchainID, deposit, canBeDelegatedTo))
}

// IncreaseStake adds to a validator's own deposit.
func (a *AppchainAnchor) IncreaseStake(validatorID anchor.AccountID, amount *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := positive(amount); err != nil {
		return err
	}
	return a.recordFact(staking.NewStakeChange(staking.StakeIncreased, validatorID, amount))
}

// DecreaseStake releases part of a validator's deposit, subject to the
// registration floor and the unlock period.
func (a *AppchainAnchor) DecreaseStake(validatorID anchor.AccountID, amount *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := positive(amount); err != nil {
		return err
	}
	return a.recordFact(
		staking.NewStakeChange(staking.StakeDecreased, validatorID, amount),
		release{validatorID, amount},
	)
}

// UnbondStake fully exits a validator. All delegations to it are released as
// well; each delegator's deposit gets its own unbonded reference pointing at
// the same ledger entry.
func (a *AppchainAnchor) UnbondStake(validatorID anchor.AccountID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.liveSet.Validator(validatorID)
	if v == nil {
		return errors.Errorf("validator %s is not registered", validatorID)
	}
	releases := []release{{validatorID, v.DepositAmount}}
	for _, delegatorID := range a.liveSet.DelegatorIDsOf(validatorID) {
		d := a.liveSet.Delegator(delegatorID, validatorID)
		releases = append(releases, release{delegatorID, d.DepositAmount})
	}
	return a.recordFact(
		staking.NewStakeChange(staking.ValidatorUnbonded, validatorID, v.DepositAmount),
		releases...,
	)
}

// EnableDelegation opens a validator for new delegations.
func (a *AppchainAnchor) EnableDelegation(validatorID anchor.AccountID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recordFact(staking.NewDelegationFlag(staking.DelegationEnabled, validatorID))
}

// DisableDelegation closes a validator to new delegations. Existing ones are
// unaffected.
func (a *AppchainAnchor) DisableDelegation(validatorID anchor.AccountID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recordFact(staking.NewDelegationFlag(staking.DelegationDisabled, validatorID))
}

// RegisterDelegator registers a new delegation of the delegator to the
// validator with its initial deposit.
func (a *AppchainAnchor) RegisterDelegator(delegatorID, validatorID anchor.AccountID, deposit *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := positive(deposit); err != nil {
		return err
	}
	if deposit.Cmp(a.settings.MinimumDelegatorDeposit) < 0 {
		return errors.Errorf("deposit of %s is below the minimum delegator deposit", delegatorID)
	}
	if a.unbonded.Has(delegatorID) {
		return errors.Errorf("account %s has unbonded stake pending withdrawal", delegatorID)
	}
	v := a.liveSet.Validator(validatorID)
	if v == nil {
		return errors.Errorf("validator %s is not registered", validatorID)
	}
	if !v.CanBeDelegatedTo {
		return errors.Errorf("validator %s does not accept delegation", validatorID)
	}
	return a.recordFact(staking.NewDelegationChange(staking.DelegatorRegistered, delegatorID, validatorID, deposit))
}

// IncreaseDelegation adds to an existing delegation.
func (a *AppchainAnchor) IncreaseDelegation(delegatorID, validatorID anchor.AccountID, amount *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := positive(amount); err != nil {
		return err
	}
	return a.recordFact(staking.NewDelegationChange(staking.DelegationIncreased, delegatorID, validatorID, amount))
}

// DecreaseDelegation releases part of a delegation, subject to the
// registration floor and the unlock period.
func (a *AppchainAnchor) DecreaseDelegation(delegatorID, validatorID anchor.AccountID, amount *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := positive(amount); err != nil {
		return err
	}
	return a.recordFact(
		staking.NewDelegationChange(staking.DelegationDecreased, delegatorID, validatorID, amount),
		release{delegatorID, amount},
	)
}

// UnbondDelegation fully exits one delegation.
func (a *AppchainAnchor) UnbondDelegation(delegatorID, validatorID anchor.AccountID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.liveSet.Delegator(delegatorID, validatorID)
	if d == nil {
		return errors.Errorf("account %s does not delegate to validator %s", delegatorID, validatorID)
	}
	return a.recordFact(
		staking.NewDelegationChange(staking.DelegatorUnbonded, delegatorID, validatorID, d.DepositAmount),
		release{delegatorID, d.DepositAmount},
	)
}

func positive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}
