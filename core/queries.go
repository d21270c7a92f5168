// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	"math/big"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/era"
	"github.com/anchornet/anchor/staking"
	"github.com/anchornet/anchor/validatorset"
)

// ValidatorInfo is the query view of one validator.
type ValidatorInfo struct {
	ValidatorID           anchor.AccountID         `json:"validatorId"`
	ValidatorIDInAppchain anchor.AppchainAccountID `json:"validatorIdInAppchain"`
	DepositAmount         *big.Int                 `json:"depositAmount"`
	TotalStake            *big.Int                 `json:"totalStake"`
	DelegatorCount        uint64                   `json:"delegatorCount"`
	CanBeDelegatedTo      bool                     `json:"canBeDelegatedTo"`
}

// SetView is the query view of a validator-set snapshot.
type SetView struct {
	EraNumber  uint64          `json:"eraNumber"`
	TotalStake *big.Int        `json:"totalStake"`
	Validators []ValidatorInfo `json:"validators"`
}

// StatusView is the query view of an era's processing status.
type StatusView struct {
	Phase                        string `json:"phase"`
	CopyingValidatorCursor       uint64 `json:"copyingValidatorCursor"`
	CopyingDelegationCursor      uint64 `json:"copyingDelegationCursor"`
	ApplyingHistoryCursor        uint64 `json:"applyingHistoryCursor"`
	ValidatorListCursor          uint64 `json:"validatorListCursor"`
	DistributingValidatorCursor  uint64 `json:"distributingValidatorCursor"`
	DistributingDelegationCursor uint64 `json:"distributingDelegationCursor"`
}

// EraView is the query view of one era.
type EraView struct {
	Number              uint64             `json:"number"`
	StartBlockHeight    uint64             `json:"startBlockHeight"`
	StartTimestamp      uint64             `json:"startTimestamp"`
	StakingHistoryStart uint64             `json:"stakingHistoryStart"`
	TotalStake          *big.Int           `json:"totalStake"`
	ValidTotalStake     *big.Int           `json:"validTotalStake"`
	Payout              *big.Int           `json:"payout"`
	UnprofitableIDs     []anchor.AccountID `json:"unprofitableIds"`
	Validators          []ValidatorInfo    `json:"validators"`
	Status              StatusView         `json:"status"`
}

// StakingHistoryIndexRange returns the inclusive index range of the staking
// ledger.
func (a *AppchainAnchor) StakingHistoryIndexRange() anchor.IndexRange {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.IndexRange()
}

// StakingHistory returns the ledger entry at the given index, nil if out of
// range.
func (a *AppchainAnchor) StakingHistory(index uint64) (*staking.History, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Get(index)
}

// EraIndexRange returns the inclusive range of sealed era numbers.
func (a *AppchainAnchor) EraIndexRange() anchor.IndexRange {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lifecycle.Histories().IndexRange()
}

// Era returns the view of the given era, nil if out of range.
func (a *AppchainAnchor) Era(number uint64) (*EraView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lifecycle.Histories().Get(number)
	if err != nil || e == nil {
		return nil, err
	}
	return &EraView{
		Number:              e.Number(),
		StartBlockHeight:    e.StartBlockHeight(),
		StartTimestamp:      e.StartTimestamp(),
		StakingHistoryStart: e.StakingHistoryStart(),
		TotalStake:          e.Set().TotalStake(),
		ValidTotalStake:     e.ValidTotalStake(),
		Payout:              e.Payout(),
		UnprofitableIDs:     append([]anchor.AccountID(nil), e.UnprofitableIDs()...),
		Validators:          validatorInfos(e.Set()),
		Status:              statusView(e.Status()),
	}, nil
}

// EraStatus returns the processing status of the given era, nil if out of
// range.
func (a *AppchainAnchor) EraStatus(number uint64) (*StatusView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lifecycle.Histories().Get(number)
	if err != nil || e == nil {
		return nil, err
	}
	view := statusView(e.Status())
	return &view, nil
}

// LiveValidatorSet returns the view of the live set, the state every recorded
// fact has been folded into.
func (a *AppchainAnchor) LiveValidatorSet() *SetView {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &SetView{
		EraNumber:  a.lifecycle.Histories().Count(),
		TotalStake: a.liveSet.TotalStake(),
		Validators: validatorInfos(a.liveSet),
	}
}

// UnbondedStakesOf returns the account's pending unbonded stake references.
func (a *AppchainAnchor) UnbondedStakesOf(account anchor.AccountID) []staking.UnbondedStakeReference {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]staking.UnbondedStakeReference(nil), a.unbonded.Get(account)...)
}

func validatorInfos(s *validatorset.Set) []ValidatorInfo {
	infos := make([]ValidatorInfo, 0, s.ValidatorCount())
	for _, id := range s.ValidatorIDs() {
		v := s.Validator(id)
		infos = append(infos, ValidatorInfo{
			ValidatorID:           v.ValidatorID,
			ValidatorIDInAppchain: v.ValidatorIDInAppchain,
			DepositAmount:         new(big.Int).Set(v.DepositAmount),
			TotalStake:            new(big.Int).Set(v.TotalStake),
			DelegatorCount:        uint64(len(s.DelegatorIDsOf(id))),
			CanBeDelegatedTo:      v.CanBeDelegatedTo,
		})
	}
	return infos
}

func statusView(s era.ProcessingStatus) StatusView {
	return StatusView{
		Phase:                        s.Phase.String(),
		CopyingValidatorCursor:       s.CopyingValidatorCursor,
		CopyingDelegationCursor:      s.CopyingDelegationCursor,
		ApplyingHistoryCursor:        s.ApplyingHistoryCursor,
		ValidatorListCursor:          s.ValidatorListCursor,
		DistributingValidatorCursor:  s.DistributingValidatorCursor,
		DistributingDelegationCursor: s.DistributingDelegationCursor,
	}
}
