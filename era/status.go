// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package era builds and stores the sealed per-era validator sets and drives
// each era through its processing phases with a bounded work budget per step.
package era

// Phase is one stage of an era's processing pipeline. Phases always advance
// forward; within a phase, progress is tracked by cursors so a partially
// processed era resumes exactly where it stopped.
type Phase uint8

const (
	CopyingFromLastEra Phase = iota
	ApplyingStakingHistory
	MakingValidatorList
	ReadyForDistributingReward
	DistributingReward
	Completed
)

func (p Phase) String() string {
	switch p {
	case CopyingFromLastEra:
		return "CopyingFromLastEra"
	case ApplyingStakingHistory:
		return "ApplyingStakingHistory"
	case MakingValidatorList:
		return "MakingValidatorList"
	case ReadyForDistributingReward:
		return "ReadyForDistributingReward"
	case DistributingReward:
		return "DistributingReward"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// ProcessingStatus is the resumable position of an era inside its pipeline.
// All cursors index into sorted orderings of the era's own sealed data, so
// they stay valid across restarts.
type ProcessingStatus struct {
	Phase Phase

	// CopyingFromLastEra: positions in the previous era's sorted validator
	// ids and delegation keys.
	CopyingValidatorCursor  uint64
	CopyingDelegationCursor uint64

	// ApplyingStakingHistory: the next staking ledger index to fold.
	ApplyingHistoryCursor uint64

	// MakingValidatorList: position in this era's sorted validator ids.
	ValidatorListCursor uint64

	// DistributingReward: position in this era's sorted validator ids, and a
	// one-based position in that validator's sorted delegator ids. Zero means
	// the validator's own share has not been credited yet.
	DistributingValidatorCursor  uint64
	DistributingDelegationCursor uint64
}
