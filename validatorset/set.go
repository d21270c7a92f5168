// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validatorset

import (
	"io"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
)

// DelegationKey identifies one delegation entity.
type DelegationKey struct {
	DelegatorID anchor.AccountID
	ValidatorID anchor.AccountID
}

// Set is the mutable validator-set snapshot: validator and delegator records,
// the two cross-index maps (kept mutual inverses by construction) and the
// aggregate total stake.
//
// All orderings exposed by the set are sorted by account id, so cursor-based
// incremental processing over a quiescent set is deterministic and resumable.
type Set struct {
	eraNumber uint64

	validatorIDs []anchor.AccountID // sorted
	validators   map[anchor.AccountID]*Validator
	delegators   map[DelegationKey]*Delegator

	validatorToDelegators map[anchor.AccountID][]anchor.AccountID // sorted per key
	delegatorToValidators map[anchor.AccountID][]anchor.AccountID // sorted per key
	appchainIDs           map[anchor.AppchainAccountID]anchor.AccountID

	totalStake *big.Int
}

// New creates an empty set for the given era.
func New(eraNumber uint64) *Set {
	return &Set{
		eraNumber:             eraNumber,
		validators:            make(map[anchor.AccountID]*Validator),
		delegators:            make(map[DelegationKey]*Delegator),
		validatorToDelegators: make(map[anchor.AccountID][]anchor.AccountID),
		delegatorToValidators: make(map[anchor.AccountID][]anchor.AccountID),
		appchainIDs:           make(map[anchor.AppchainAccountID]anchor.AccountID),
		totalStake:            new(big.Int),
	}
}

// EraNumber returns the era this set accumulates for.
func (s *Set) EraNumber() uint64 { return s.eraNumber }

// TotalStake returns the aggregate stake over all validators.
func (s *Set) TotalStake() *big.Int { return new(big.Int).Set(s.totalStake) }

// ValidatorCount returns the number of validators.
func (s *Set) ValidatorCount() int { return len(s.validatorIDs) }

// ValidatorIDs returns the sorted validator ids. The returned slice is shared;
// callers must not mutate it.
func (s *Set) ValidatorIDs() []anchor.AccountID { return s.validatorIDs }

// Validator returns the validator record, or nil if absent.
func (s *Set) Validator(id anchor.AccountID) *Validator {
	return s.validators[id]
}

// Delegator returns the delegation record of the pair, or nil if absent.
func (s *Set) Delegator(delegatorID, validatorID anchor.AccountID) *Delegator {
	return s.delegators[DelegationKey{delegatorID, validatorID}]
}

// DelegatorIDsOf returns the sorted delegator ids of a validator.
func (s *Set) DelegatorIDsOf(validatorID anchor.AccountID) []anchor.AccountID {
	return s.validatorToDelegators[validatorID]
}

// ValidatorIDsOf returns the sorted validator ids a delegator delegates to.
func (s *Set) ValidatorIDsOf(delegatorID anchor.AccountID) []anchor.AccountID {
	return s.delegatorToValidators[delegatorID]
}

// ValidatorIDByAppchainID resolves an appchain id to the validator holding it.
func (s *Set) ValidatorIDByAppchainID(appchainID anchor.AppchainAccountID) (anchor.AccountID, bool) {
	id, ok := s.appchainIDs[appchainID]
	return id, ok
}

// DelegationKeys returns all delegation keys sorted by (delegator, validator).
func (s *Set) DelegationKeys() []DelegationKey {
	keys := make([]DelegationKey, 0, len(s.delegators))
	for k := range s.delegators {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DelegatorID != keys[j].DelegatorID {
			return keys[i].DelegatorID < keys[j].DelegatorID
		}
		return keys[i].ValidatorID < keys[j].ValidatorID
	})
	return keys
}

// CopyValidatorFrom inserts a verbatim copy of a prior era's validator record,
// carrying its delegated total, and adds its total stake to the aggregate.
// Used only while seeding a new era from the previous snapshot.
func (s *Set) CopyValidatorFrom(v *Validator) {
	c := v.clone()
	s.validators[c.ValidatorID] = c
	s.validatorIDs = insertSorted(s.validatorIDs, c.ValidatorID)
	s.appchainIDs[c.ValidatorIDInAppchain] = c.ValidatorID
	s.totalStake.Add(s.totalStake, c.TotalStake)
}

// CopyDelegatorFrom inserts a verbatim copy of a prior era's delegation
// record and indexes it. Stake totals are untouched: the copied validator
// records already carry their delegated totals.
func (s *Set) CopyDelegatorFrom(d *Delegator) {
	c := d.clone()
	s.delegators[DelegationKey{c.DelegatorID, c.ValidatorID}] = c
	s.indexDelegation(c.DelegatorID, c.ValidatorID)
}

func (s *Set) indexDelegation(delegatorID, validatorID anchor.AccountID) {
	s.validatorToDelegators[validatorID] = insertSorted(s.validatorToDelegators[validatorID], delegatorID)
	s.delegatorToValidators[delegatorID] = insertSorted(s.delegatorToValidators[delegatorID], validatorID)
}

// unindexDelegation removes the pair from both cross-index maps, pruning
// entries whose sets become empty so the maps stay mutual inverses.
func (s *Set) unindexDelegation(delegatorID, validatorID anchor.AccountID) {
	if rest := removeSorted(s.validatorToDelegators[validatorID], delegatorID); len(rest) > 0 {
		s.validatorToDelegators[validatorID] = rest
	} else {
		delete(s.validatorToDelegators, validatorID)
	}
	if rest := removeSorted(s.delegatorToValidators[delegatorID], validatorID); len(rest) > 0 {
		s.delegatorToValidators[delegatorID] = rest
	} else {
		delete(s.delegatorToValidators, delegatorID)
	}
}

func insertSorted(ids []anchor.AccountID, id anchor.AccountID) []anchor.AccountID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeSorted(ids []anchor.AccountID, id anchor.AccountID) []anchor.AccountID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i >= len(ids) || ids[i] != id {
		return ids
	}
	return append(ids[:i:i], ids[i+1:]...)
}

type setRLP struct {
	EraNumber  uint64
	Validators []Validator
	Delegators []Delegator
	TotalStake *big.Int
}

// EncodeRLP flattens the set into sorted record lists; the index maps are
// derived state and are rebuilt on decode.
func (s *Set) EncodeRLP(w io.Writer) error {
	ext := setRLP{
		EraNumber:  s.eraNumber,
		Validators: make([]Validator, 0, len(s.validatorIDs)),
		Delegators: make([]Delegator, 0, len(s.delegators)),
		TotalStake: s.totalStake,
	}
	for _, id := range s.validatorIDs {
		ext.Validators = append(ext.Validators, *s.validators[id])
	}
	for _, key := range s.DelegationKeys() {
		ext.Delegators = append(ext.Delegators, *s.delegators[key])
	}
	return rlp.Encode(w, &ext)
}

// DecodeRLP rebuilds the set, including both cross-index maps, from the
// flattened form.
func (s *Set) DecodeRLP(st *rlp.Stream) error {
	var ext setRLP
	if err := st.Decode(&ext); err != nil {
		return err
	}
	rebuilt := New(ext.EraNumber)
	for i := range ext.Validators {
		v := ext.Validators[i]
		rebuilt.validators[v.ValidatorID] = &v
		rebuilt.validatorIDs = insertSorted(rebuilt.validatorIDs, v.ValidatorID)
		rebuilt.appchainIDs[v.ValidatorIDInAppchain] = v.ValidatorID
	}
	for i := range ext.Delegators {
		d := ext.Delegators[i]
		rebuilt.delegators[DelegationKey{d.DelegatorID, d.ValidatorID}] = &d
		rebuilt.indexDelegation(d.DelegatorID, d.ValidatorID)
	}
	if ext.TotalStake == nil {
		ext.TotalStake = new(big.Int)
	}
	rebuilt.totalStake = ext.TotalStake
	*s = *rebuilt
	return nil
}

// checkInverse verifies the two index maps are mutual inverses; tests call it
// after every mutation batch.
func (s *Set) checkInverse() error {
	for validatorID, delegatorIDs := range s.validatorToDelegators {
		for _, delegatorID := range delegatorIDs {
			vs := s.delegatorToValidators[delegatorID]
			if i := sort.Search(len(vs), func(i int) bool { return vs[i] >= validatorID }); i >= len(vs) || vs[i] != validatorID {
				return errors.Errorf("index maps diverged for (%s, %s)", delegatorID, validatorID)
			}
		}
	}
	return nil
}
