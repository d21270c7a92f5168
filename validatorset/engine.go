// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validatorset

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/staking"
)

// Limits are the snapshot-local bounds Apply enforces. Preconditions that
// read state outside the snapshot (pending unbonded stakes, appchain-id
// mappings of other eras) are the caller's to check before a fact is
// recorded, so that replaying recorded facts cannot fail.
type Limits struct {
	MinimumValidatorDeposit       *big.Int
	MinimumDelegatorDeposit       *big.Int
	MaximumValidatorsPerDelegator uint64
}

// LimitsOf derives Apply limits from the protocol settings.
func LimitsOf(s *anchor.ProtocolSettings) Limits {
	return Limits{
		MinimumValidatorDeposit:       s.MinimumValidatorDeposit,
		MinimumDelegatorDeposit:       s.MinimumDelegatorDeposit,
		MaximumValidatorsPerDelegator: s.MaximumValidatorsPerDelegator,
	}
}

// Apply folds one staking fact into the set, stamped with the chain position
// the fact was recorded at. On error the set is unchanged.
//
// Balance arithmetic is exact: an operation that would drive any balance
// negative is rejected, never wrapped or clamped.
func (s *Set) Apply(fact *staking.Fact, at anchor.RecordedAt, limits Limits) error {
	switch fact.Kind {
	case staking.ValidatorRegistered:
		return s.applyValidatorRegistered(fact, at)
	case staking.StakeIncreased:
		return s.applyStakeIncreased(fact)
	case staking.StakeDecreased:
		return s.applyStakeDecreased(fact, limits)
	case staking.ValidatorUnbonded:
		return s.applyValidatorUnbonded(fact)
	case staking.DelegationEnabled:
		return s.applyDelegationFlag(fact, true)
	case staking.DelegationDisabled:
		return s.applyDelegationFlag(fact, false)
	case staking.DelegatorRegistered:
		return s.applyDelegatorRegistered(fact, at, limits)
	case staking.DelegationIncreased:
		return s.applyDelegationIncreased(fact)
	case staking.DelegationDecreased:
		return s.applyDelegationDecreased(fact, limits)
	case staking.DelegatorUnbonded:
		return s.applyDelegatorUnbonded(fact)
	default:
		return errors.Errorf("unknown staking fact kind %d", fact.Kind)
	}
}

func (s *Set) applyValidatorRegistered(fact *staking.Fact, at anchor.RecordedAt) error {
	if _, ok := s.validators[fact.ValidatorID]; ok {
		return errors.Errorf("account %s is already registered", fact.ValidatorID)
	}
	if owner, ok := s.appchainIDs[fact.ValidatorIDInAppchain]; ok {
		return errors.Errorf("appchain account %s is already registered by %s", fact.ValidatorIDInAppchain, owner)
	}
	v := &Validator{
		ValidatorID:           fact.ValidatorID,
		ValidatorIDInAppchain: fact.ValidatorIDInAppchain,
		RegisteredAt:          at,
		DepositAmount:         new(big.Int).Set(fact.Amount),
		TotalStake:            new(big.Int).Set(fact.Amount),
		CanBeDelegatedTo:      fact.CanBeDelegatedTo,
	}
	s.validators[v.ValidatorID] = v
	s.validatorIDs = insertSorted(s.validatorIDs, v.ValidatorID)
	s.appchainIDs[v.ValidatorIDInAppchain] = v.ValidatorID
	s.totalStake.Add(s.totalStake, fact.Amount)
	return nil
}

func (s *Set) applyStakeIncreased(fact *staking.Fact) error {
	v, err := s.existingValidator(fact.ValidatorID)
	if err != nil {
		return err
	}
	v.DepositAmount.Add(v.DepositAmount, fact.Amount)
	v.TotalStake.Add(v.TotalStake, fact.Amount)
	s.totalStake.Add(s.totalStake, fact.Amount)
	return nil
}

func (s *Set) applyStakeDecreased(fact *staking.Fact, limits Limits) error {
	v, err := s.existingValidator(fact.ValidatorID)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(v.DepositAmount, fact.Amount)
	if remaining.Sign() < 0 {
		return errors.Errorf("validator %s cannot decrease more than its deposit", fact.ValidatorID)
	}
	if remaining.Cmp(limits.MinimumValidatorDeposit) < 0 {
		return errors.Errorf("validator %s deposit would fall below the minimum", fact.ValidatorID)
	}
	v.DepositAmount = remaining
	v.TotalStake.Sub(v.TotalStake, fact.Amount)
	s.totalStake.Sub(s.totalStake, fact.Amount)
	return nil
}

func (s *Set) applyValidatorUnbonded(fact *staking.Fact) error {
	v, err := s.existingValidator(fact.ValidatorID)
	if err != nil {
		return err
	}
	// collect first, then remove, to avoid mutating the index while ranging
	delegatorIDs := append([]anchor.AccountID(nil), s.validatorToDelegators[fact.ValidatorID]...)
	for _, delegatorID := range delegatorIDs {
		s.unindexDelegation(delegatorID, fact.ValidatorID)
		delete(s.delegators, DelegationKey{delegatorID, fact.ValidatorID})
	}
	s.totalStake.Sub(s.totalStake, v.TotalStake)
	delete(s.validators, fact.ValidatorID)
	delete(s.appchainIDs, v.ValidatorIDInAppchain)
	s.validatorIDs = removeSorted(s.validatorIDs, fact.ValidatorID)
	return nil
}

func (s *Set) applyDelegationFlag(fact *staking.Fact, enabled bool) error {
	v, err := s.existingValidator(fact.ValidatorID)
	if err != nil {
		return err
	}
	v.CanBeDelegatedTo = enabled
	return nil
}

func (s *Set) applyDelegatorRegistered(fact *staking.Fact, at anchor.RecordedAt, limits Limits) error {
	key := DelegationKey{fact.DelegatorID, fact.ValidatorID}
	if _, ok := s.delegators[key]; ok {
		return errors.Errorf("account %s already delegates to validator %s", fact.DelegatorID, fact.ValidatorID)
	}
	v, err := s.existingValidator(fact.ValidatorID)
	if err != nil {
		return err
	}
	if uint64(len(s.delegatorToValidators[fact.DelegatorID])) >= limits.MaximumValidatorsPerDelegator {
		return errors.Errorf("account %s delegates to too many validators", fact.DelegatorID)
	}
	s.delegators[key] = &Delegator{
		DelegatorID:   fact.DelegatorID,
		ValidatorID:   fact.ValidatorID,
		RegisteredAt:  at,
		DepositAmount: new(big.Int).Set(fact.Amount),
	}
	s.indexDelegation(fact.DelegatorID, fact.ValidatorID)
	v.TotalStake.Add(v.TotalStake, fact.Amount)
	s.totalStake.Add(s.totalStake, fact.Amount)
	return nil
}

func (s *Set) applyDelegationIncreased(fact *staking.Fact) error {
	d, v, err := s.existingDelegation(fact.DelegatorID, fact.ValidatorID)
	if err != nil {
		return err
	}
	d.DepositAmount.Add(d.DepositAmount, fact.Amount)
	v.TotalStake.Add(v.TotalStake, fact.Amount)
	s.totalStake.Add(s.totalStake, fact.Amount)
	return nil
}

func (s *Set) applyDelegationDecreased(fact *staking.Fact, limits Limits) error {
	d, v, err := s.existingDelegation(fact.DelegatorID, fact.ValidatorID)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(d.DepositAmount, fact.Amount)
	if remaining.Sign() < 0 {
		return errors.Errorf("delegator %s cannot decrease more than its deposit to %s", fact.DelegatorID, fact.ValidatorID)
	}
	if remaining.Cmp(limits.MinimumDelegatorDeposit) < 0 {
		return errors.Errorf("delegation of %s to %s would fall below the minimum", fact.DelegatorID, fact.ValidatorID)
	}
	d.DepositAmount = remaining
	v.TotalStake.Sub(v.TotalStake, fact.Amount)
	s.totalStake.Sub(s.totalStake, fact.Amount)
	return nil
}

func (s *Set) applyDelegatorUnbonded(fact *staking.Fact) error {
	d, v, err := s.existingDelegation(fact.DelegatorID, fact.ValidatorID)
	if err != nil {
		return err
	}
	s.unindexDelegation(fact.DelegatorID, fact.ValidatorID)
	delete(s.delegators, DelegationKey{fact.DelegatorID, fact.ValidatorID})
	v.TotalStake.Sub(v.TotalStake, d.DepositAmount)
	s.totalStake.Sub(s.totalStake, d.DepositAmount)
	return nil
}

// existingValidator returns the validator or an internal-consistency error:
// every fact referencing a validator was validated against its presence when
// recorded.
func (s *Set) existingValidator(id anchor.AccountID) (*Validator, error) {
	v, ok := s.validators[id]
	if !ok {
		return nil, errors.Errorf("validator %s does not exist in the set of era %d", id, s.eraNumber)
	}
	return v, nil
}

func (s *Set) existingDelegation(delegatorID, validatorID anchor.AccountID) (*Delegator, *Validator, error) {
	d, ok := s.delegators[DelegationKey{delegatorID, validatorID}]
	if !ok {
		return nil, nil, errors.Errorf("delegation of %s to %s does not exist in the set of era %d", delegatorID, validatorID, s.eraNumber)
	}
	v, err := s.existingValidator(validatorID)
	if err != nil {
		return nil, nil, err
	}
	return d, v, nil
}
