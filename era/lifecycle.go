// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package era

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/kv"
	"github.com/anchornet/anchor/log"
	"github.com/anchornet/anchor/metrics"
	"github.com/anchornet/anchor/rewards"
	"github.com/anchornet/anchor/staking"
	"github.com/anchornet/anchor/validatorset"
)

const defaultSliceSize = 50

var (
	logger = log.WithContext("pkg", "era")

	metricCurrentEra    = metrics.LazyLoadGauge("era_current_number")
	metricCompletedEras = metrics.LazyLoadCounter("era_completed_count")
)

// Lifecycle owns the latest era and drives it through its phases. Each
// Advance call performs at most sliceSize units of work, so long pipelines
// never block a single invocation.
type Lifecycle struct {
	histories *Histories
	ledger    *staking.Ledger
	rewards   *rewards.Ledger
	settings  *anchor.ProtocolSettings
	sliceSize uint64

	current *Era
}

// NewLifecycle loads the era history and resumes the latest era wherever its
// stored cursors point. A sliceSize of zero selects the default budget.
func NewLifecycle(store kv.Getter, ledger *staking.Ledger, rewardLedger *rewards.Ledger, settings *anchor.ProtocolSettings, sliceSize uint64) (*Lifecycle, error) {
	histories, err := NewHistories(store)
	if err != nil {
		return nil, err
	}
	if sliceSize == 0 {
		sliceSize = defaultSliceSize
	}
	l := &Lifecycle{
		histories: histories,
		ledger:    ledger,
		rewards:   rewardLedger,
		settings:  settings,
		sliceSize: sliceSize,
	}
	if n := histories.Count(); n > 0 {
		if l.current, err = histories.Get(n - 1); err != nil {
			return nil, err
		}
		metricCurrentEra().Set(int64(l.current.Number()))
	}
	return l, nil
}

// Histories returns the era history store.
func (l *Lifecycle) Histories() *Histories { return l.histories }

// Current returns the latest era, nil before the first era is started.
func (l *Lifecycle) Current() *Era { return l.current }

// StartEra seals a new era at the given chain position. The era number must
// be the next one, and the previous era must have completed its pipeline.
// The new era captures the current ledger end as its fact boundary.
func (l *Lifecycle) StartEra(w kv.Putter, number uint64, at anchor.RecordedAt) (*Era, error) {
	if number != l.histories.Count() {
		return nil, errors.Errorf("cannot start era %d, next era is %d", number, l.histories.Count())
	}
	applyFrom := uint64(0)
	if l.current != nil {
		if l.current.status.Phase != Completed {
			return nil, errors.Errorf("era %d is still processing (%v)", l.current.Number(), l.current.status.Phase)
		}
		applyFrom = l.current.stakingHistoryStart
	}
	e := newEra(number, at, l.ledger.Count(), applyFrom)
	if err := l.histories.Save(w, e); err != nil {
		return nil, err
	}
	l.current = e
	metricCurrentEra().Set(int64(number))
	logger.Info("era started",
		"era", number,
		"height", at.BlockHeight,
		"factBoundary", e.stakingHistoryStart)
	return e, nil
}

// ConcludePayout records the era's payout and the validators excluded from
// it, then moves the era into reward distribution. The unprofitable ids must
// already be resolved to anchor-side accounts.
func (l *Lifecycle) ConcludePayout(w kv.Putter, number uint64, payout *big.Int, unprofitable []anchor.AccountID) error {
	e := l.current
	if e == nil || e.Number() != number {
		return errors.Errorf("payout concluded for era %d which is not the current era", number)
	}
	if e.status.Phase != ReadyForDistributingReward {
		return errors.Errorf("era %d is not ready for payout (%v)", number, e.status.Phase)
	}
	e.setUnprofitable(unprofitable)
	valid := new(big.Int)
	for _, id := range e.set.ValidatorIDs() {
		if e.IsUnprofitable(id) {
			continue
		}
		valid.Add(valid, e.set.Validator(id).TotalStake)
	}
	e.validTotalStake = valid
	e.payout = new(big.Int).Set(payout)
	e.status.Phase = DistributingReward
	e.status.DistributingValidatorCursor = 0
	e.status.DistributingDelegationCursor = 0
	logger.Info("era payout concluded",
		"era", number,
		"payout", payout,
		"unprofitable", len(unprofitable),
		"validTotalStake", valid)
	return l.histories.Save(w, e)
}

// Advance performs up to one slice of work on the current era and stages the
// updated era state into w. It returns the status after the slice; callers
// invoke it repeatedly until the phase stops moving.
func (l *Lifecycle) Advance(w kv.Putter) (ProcessingStatus, error) {
	if l.current == nil {
		return ProcessingStatus{}, errors.New("no era has been started")
	}
	e := l.current
	before := e.status
	budget := l.sliceSize
	for budget > 0 {
		var err error
		switch e.status.Phase {
		case CopyingFromLastEra:
			err = l.advanceCopying(e, &budget)
		case ApplyingStakingHistory:
			err = l.advanceApplying(e, &budget)
		case MakingValidatorList:
			l.advanceListing(e, &budget)
		case DistributingReward:
			err = l.advanceDistributing(w, e, &budget)
		default:
			// ReadyForDistributingReward waits for the payout signal,
			// Completed is terminal.
			budget = 0
		}
		if err != nil {
			return e.status, err
		}
	}
	if e.status != before {
		if err := l.histories.Save(w, e); err != nil {
			return e.status, err
		}
	}
	return e.status, nil
}

func (l *Lifecycle) advanceCopying(e *Era, budget *uint64) error {
	if e.Number() == 0 {
		e.status.Phase = ApplyingStakingHistory
		return nil
	}
	prev, err := l.histories.Get(e.Number() - 1)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Errorf("era %d is missing from the history", e.Number()-1)
	}
	prevSet := prev.Set()

	ids := prevSet.ValidatorIDs()
	for e.status.CopyingValidatorCursor < uint64(len(ids)) && *budget > 0 {
		e.set.CopyValidatorFrom(prevSet.Validator(ids[e.status.CopyingValidatorCursor]))
		e.status.CopyingValidatorCursor++
		*budget--
	}
	if e.status.CopyingValidatorCursor < uint64(len(ids)) {
		return nil
	}

	keys := prevSet.DelegationKeys()
	for e.status.CopyingDelegationCursor < uint64(len(keys)) && *budget > 0 {
		key := keys[e.status.CopyingDelegationCursor]
		e.set.CopyDelegatorFrom(prevSet.Delegator(key.DelegatorID, key.ValidatorID))
		e.status.CopyingDelegationCursor++
		*budget--
	}
	if e.status.CopyingDelegationCursor == uint64(len(keys)) {
		e.status.Phase = ApplyingStakingHistory
		logger.Debug("era copied previous set", "era", e.Number(), "validators", len(ids), "delegations", len(keys))
	}
	return nil
}

func (l *Lifecycle) advanceApplying(e *Era, budget *uint64) error {
	limits := validatorset.LimitsOf(l.settings)
	for e.status.ApplyingHistoryCursor < e.stakingHistoryStart && *budget > 0 {
		history, err := l.ledger.Get(e.status.ApplyingHistoryCursor)
		if err != nil {
			return err
		}
		if history == nil {
			return errors.Errorf("staking history %d is missing from the ledger", e.status.ApplyingHistoryCursor)
		}
		if err := e.set.Apply(&history.Fact, history.RecordedAt, limits); err != nil {
			return errors.Wrapf(err, "replay staking history %d into era %d", history.Index, e.Number())
		}
		e.status.ApplyingHistoryCursor++
		*budget--
	}
	if e.status.ApplyingHistoryCursor == e.stakingHistoryStart {
		e.status.Phase = MakingValidatorList
	}
	return nil
}

func (l *Lifecycle) advanceListing(e *Era, budget *uint64) {
	ids := e.set.ValidatorIDs()
	for e.status.ValidatorListCursor < uint64(len(ids)) && *budget > 0 {
		v := e.set.Validator(ids[e.status.ValidatorListCursor])
		e.validatorList = append(e.validatorList, ValidatorView{
			ValidatorID:           v.ValidatorID,
			ValidatorIDInAppchain: v.ValidatorIDInAppchain,
			TotalStake:            new(big.Int).Set(v.TotalStake),
			DelegatorCount:        uint64(len(e.set.DelegatorIDsOf(v.ValidatorID))),
		})
		e.status.ValidatorListCursor++
		*budget--
	}
	if e.status.ValidatorListCursor == uint64(len(ids)) {
		e.status.Phase = ReadyForDistributingReward
		logger.Info("era awaiting payout",
			"era", e.Number(),
			"validators", len(ids),
			"totalStake", e.set.TotalStake())
	}
}

// advanceDistributing credits the era's payout. Each profitable validator
// receives a share proportional to its total stake; the share is split
// between the validator's own deposit and its delegators, with the delegation
// fee retained by the validator. Integer division dust stays undistributed.
func (l *Lifecycle) advanceDistributing(w kv.Putter, e *Era, budget *uint64) error {
	if e.validTotalStake.Sign() == 0 {
		e.status.Phase = Completed
		metricCompletedEras().Add(1)
		logger.Warn("era has no profitable stake, payout not distributed", "era", e.Number())
		return nil
	}
	ids := e.set.ValidatorIDs()
	for e.status.DistributingValidatorCursor < uint64(len(ids)) && *budget > 0 {
		id := ids[e.status.DistributingValidatorCursor]
		if e.IsUnprofitable(id) {
			e.status.DistributingValidatorCursor++
			e.status.DistributingDelegationCursor = 0
			*budget--
			continue
		}
		v := e.set.Validator(id)
		share := new(big.Int).Mul(e.payout, v.TotalStake)
		share.Div(share, e.validTotalStake)

		if e.status.DistributingDelegationCursor == 0 {
			cut := new(big.Int).Mul(share, v.DepositAmount)
			cut.Div(cut, v.TotalStake)
			if err := l.rewards.AccrueValidator(w, e.Number(), id, cut); err != nil {
				return err
			}
			e.status.DistributingDelegationCursor = 1
			*budget--
			continue
		}

		delegatorIDs := e.set.DelegatorIDsOf(id)
		for e.status.DistributingDelegationCursor-1 < uint64(len(delegatorIDs)) && *budget > 0 {
			delegatorID := delegatorIDs[e.status.DistributingDelegationCursor-1]
			d := e.set.Delegator(delegatorID, id)
			raw := new(big.Int).Mul(share, d.DepositAmount)
			raw.Div(raw, v.TotalStake)
			fee := new(big.Int).Mul(raw, new(big.Int).SetUint64(l.settings.DelegationFeePercent))
			fee.Div(fee, big.NewInt(100))
			if err := l.rewards.AccrueDelegator(w, e.Number(), delegatorID, id, new(big.Int).Sub(raw, fee)); err != nil {
				return err
			}
			if err := l.rewards.AccrueValidator(w, e.Number(), id, fee); err != nil {
				return err
			}
			e.status.DistributingDelegationCursor++
			*budget--
		}
		if e.status.DistributingDelegationCursor-1 == uint64(len(delegatorIDs)) {
			e.status.DistributingValidatorCursor++
			e.status.DistributingDelegationCursor = 0
		}
	}
	if e.status.DistributingValidatorCursor == uint64(len(ids)) {
		e.status.Phase = Completed
		metricCompletedEras().Add(1)
		logger.Info("era reward distribution completed", "era", e.Number(), "payout", e.payout)
	}
	return nil
}
