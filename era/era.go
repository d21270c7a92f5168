// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package era

import (
	"io"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/validatorset"
)

// ValidatorView is one entry of an era's materialized validator list, the
// flattened form served to queries.
type ValidatorView struct {
	ValidatorID           anchor.AccountID
	ValidatorIDInAppchain anchor.AppchainAccountID
	TotalStake            *big.Int
	DelegatorCount        uint64
}

// Era is the validator set sealed for one era together with its processing
// state. The staking-history boundary is captured at creation and never
// moves: the set folds exactly the ledger entries in
// [previous era's boundary, this era's boundary).
type Era struct {
	number           uint64
	startBlockHeight uint64
	startTimestamp   uint64

	stakingHistoryStart uint64

	set           *validatorset.Set
	validatorList []ValidatorView

	unprofitableIDs []anchor.AccountID // sorted
	unprofitable    map[anchor.AccountID]struct{}
	validTotalStake *big.Int
	payout          *big.Int

	status ProcessingStatus
}

func newEra(number uint64, at anchor.RecordedAt, historyStart, applyFrom uint64) *Era {
	return &Era{
		number:              number,
		startBlockHeight:    at.BlockHeight,
		startTimestamp:      at.Timestamp,
		stakingHistoryStart: historyStart,
		set:                 validatorset.New(number),
		unprofitable:        make(map[anchor.AccountID]struct{}),
		validTotalStake:     new(big.Int),
		payout:              new(big.Int),
		status: ProcessingStatus{
			Phase:                 CopyingFromLastEra,
			ApplyingHistoryCursor: applyFrom,
		},
	}
}

// Number returns the era number.
func (e *Era) Number() uint64 { return e.number }

// StartBlockHeight returns the block height the era was sealed at.
func (e *Era) StartBlockHeight() uint64 { return e.startBlockHeight }

// StartTimestamp returns the timestamp (ns) the era was sealed at. Unlock
// periods of deposits unbonded during this era count from here.
func (e *Era) StartTimestamp() uint64 { return e.startTimestamp }

// StakingHistoryStart returns the ledger end index captured when the era was
// sealed.
func (e *Era) StakingHistoryStart() uint64 { return e.stakingHistoryStart }

// Set returns the era's validator set snapshot.
func (e *Era) Set() *validatorset.Set { return e.set }

// Status returns the era's processing status.
func (e *Era) Status() ProcessingStatus { return e.status }

// Payout returns the era's concluded payout, zero before conclusion.
func (e *Era) Payout() *big.Int { return new(big.Int).Set(e.payout) }

// ValidTotalStake returns the total stake of the era's profitable validators,
// zero before the payout is concluded.
func (e *Era) ValidTotalStake() *big.Int { return new(big.Int).Set(e.validTotalStake) }

// UnprofitableIDs returns the sorted ids of the validators excluded from the
// era's reward distribution.
func (e *Era) UnprofitableIDs() []anchor.AccountID { return e.unprofitableIDs }

// IsUnprofitable reports whether the validator is excluded from the era's
// reward distribution.
func (e *Era) IsUnprofitable(id anchor.AccountID) bool {
	_, ok := e.unprofitable[id]
	return ok
}

// ValidatorList returns the materialized validator list, empty until the
// MakingValidatorList phase has completed.
func (e *Era) ValidatorList() []ValidatorView { return e.validatorList }

func (e *Era) setUnprofitable(ids []anchor.AccountID) {
	e.unprofitableIDs = append([]anchor.AccountID(nil), ids...)
	sort.Slice(e.unprofitableIDs, func(i, j int) bool { return e.unprofitableIDs[i] < e.unprofitableIDs[j] })
	e.unprofitable = make(map[anchor.AccountID]struct{}, len(ids))
	for _, id := range e.unprofitableIDs {
		e.unprofitable[id] = struct{}{}
	}
}

type eraRLP struct {
	Number              uint64
	StartBlockHeight    uint64
	StartTimestamp      uint64
	StakingHistoryStart uint64
	Set                 *validatorset.Set
	ValidatorList       []ValidatorView
	UnprofitableIDs     []anchor.AccountID
	ValidTotalStake     *big.Int
	Payout              *big.Int
	Status              ProcessingStatus
}

// EncodeRLP implements rlp.Encoder.
func (e *Era) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &eraRLP{
		Number:              e.number,
		StartBlockHeight:    e.startBlockHeight,
		StartTimestamp:      e.startTimestamp,
		StakingHistoryStart: e.stakingHistoryStart,
		Set:                 e.set,
		ValidatorList:       e.validatorList,
		UnprofitableIDs:     e.unprofitableIDs,
		ValidTotalStake:     e.validTotalStake,
		Payout:              e.payout,
		Status:              e.status,
	})
}

// DecodeRLP implements rlp.Decoder.
func (e *Era) DecodeRLP(st *rlp.Stream) error {
	var ext eraRLP
	if err := st.Decode(&ext); err != nil {
		return err
	}
	*e = Era{
		number:              ext.Number,
		startBlockHeight:    ext.StartBlockHeight,
		startTimestamp:      ext.StartTimestamp,
		stakingHistoryStart: ext.StakingHistoryStart,
		set:                 ext.Set,
		validatorList:       ext.ValidatorList,
		validTotalStake:     ext.ValidTotalStake,
		payout:              ext.Payout,
		status:              ext.Status,
	}
	e.setUnprofitable(ext.UnprofitableIDs)
	return nil
}
