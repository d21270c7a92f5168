// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/staking"
)

// WithdrawStake settles the account's matured unbonded deposits. A reference
// matures once the start of the era it was recorded for lies a full unlock
// period in the past; validator and delegator deposits carry different
// unlock periods. Immature references, and references to eras not yet
// sealed, are retained untouched. Returns the settled total, zero when
// nothing has matured.
func (a *AppchainAnchor) WithdrawStake(account anchor.AccountID) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.chrono.Timestamp()
	total := new(big.Int)
	var retained []staking.UnbondedStakeReference
	for _, ref := range a.unbonded.Get(account) {
		e, err := a.lifecycle.Histories().Get(ref.EraNumber)
		if err != nil {
			return nil, err
		}
		if e == nil {
			// the unlock clock has not started yet
			retained = append(retained, ref)
			continue
		}
		history, err := a.ledger.Get(ref.StakingHistoryIndex)
		if err != nil {
			return nil, err
		}
		if history == nil {
			return nil, errors.Errorf("unbonded stake of %s references missing history %d", account, ref.StakingHistoryIndex)
		}
		unlock := a.settings.DelegatorUnlockDuration()
		if history.Fact.IsValidatorDeposit() && history.Fact.ValidatorID == account {
			unlock = a.settings.ValidatorUnlockDuration()
		}
		if now >= e.StartTimestamp()+unlock {
			total.Add(total, ref.Amount)
		} else {
			retained = append(retained, ref)
		}
	}
	if total.Sign() == 0 {
		return total, nil
	}

	b := a.store.NewBatch()
	if err := a.unbonded.Replace(b, account, retained); err != nil {
		return nil, a.resync(err)
	}
	if err := a.commit(b); err != nil {
		return nil, errors.Wrap(err, "commit stake withdrawal")
	}
	logger.Info("unbonded stake withdrawn", "account", account, "amount", total, "retained", len(retained))
	a.execute([]transfer{{account, total}})
	return total, nil
}

// WithdrawValidatorRewards settles the validator's rewards inside the
// retention window. Older rewards are forfeited.
func (a *AppchainAnchor) WithdrawValidatorRewards(validatorID anchor.AccountID) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	startEra, endEra := a.rewardWindow()
	if forfeited := a.rewards.ForfeitedValidatorRewards(validatorID, startEra); forfeited.Sign() > 0 {
		logger.Warn("rewards outside the retention window are forfeited",
			"validator", validatorID, "beforeEra", startEra, "amount", forfeited)
	}

	b := a.store.NewBatch()
	total, err := a.rewards.WithdrawValidator(b, validatorID, startEra, endEra)
	if err != nil {
		return nil, a.resync(err)
	}
	if total.Sign() == 0 {
		return total, nil
	}
	if err := a.commit(b); err != nil {
		return nil, errors.Wrap(err, "commit reward withdrawal")
	}
	logger.Info("validator rewards withdrawn", "validator", validatorID, "amount", total)
	a.execute([]transfer{{validatorID, total}})
	return total, nil
}

// WithdrawDelegatorRewards settles the rewards of one delegation inside the
// retention window.
func (a *AppchainAnchor) WithdrawDelegatorRewards(delegatorID, validatorID anchor.AccountID) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	startEra, endEra := a.rewardWindow()
	if forfeited := a.rewards.ForfeitedDelegatorRewards(delegatorID, validatorID, startEra); forfeited.Sign() > 0 {
		logger.Warn("rewards outside the retention window are forfeited",
			"delegator", delegatorID, "validator", validatorID, "beforeEra", startEra, "amount", forfeited)
	}

	b := a.store.NewBatch()
	total, err := a.rewards.WithdrawDelegator(b, delegatorID, validatorID, startEra, endEra)
	if err != nil {
		return nil, a.resync(err)
	}
	if total.Sign() == 0 {
		return total, nil
	}
	if err := a.commit(b); err != nil {
		return nil, errors.Wrap(err, "commit reward withdrawal")
	}
	logger.Info("delegator rewards withdrawn", "delegator", delegatorID, "validator", validatorID, "amount", total)
	a.execute([]transfer{{delegatorID, total}})
	return total, nil
}

// rewardWindow returns the era range [start, end) rewards can still be
// withdrawn from.
func (a *AppchainAnchor) rewardWindow() (uint64, uint64) {
	endEra := a.lifecycle.Histories().Count()
	if max := a.settings.MaximumEraCountOfUnwithdrawnReward; endEra > max {
		return endEra - max, endEra
	}
	return 0, endEra
}
