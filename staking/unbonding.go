// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/kv"
)

var unbondedBucket = kv.Bucket("us")

// UnbondedStakeReference points at the ledger entry that released a deposit.
// The deposit becomes withdrawable once the referenced era's unlock period
// elapses. Amount is carried in the reference because one ledger entry can
// release several deposits at once: a validator unbond also releases every
// delegation to it.
type UnbondedStakeReference struct {
	EraNumber           uint64
	StakingHistoryIndex uint64
	Amount              *big.Int
}

// UnbondingTracker keeps the pending unbonded stake references per account.
// State is held in memory and written through to the caller's batch.
type UnbondingTracker struct {
	store kv.Getter
	refs  map[anchor.AccountID][]UnbondedStakeReference
}

// NewUnbondingTracker loads all pending references from the store.
func NewUnbondingTracker(store kv.Store) (*UnbondingTracker, error) {
	t := &UnbondingTracker{
		store: store,
		refs:  make(map[anchor.AccountID][]UnbondedStakeReference),
	}
	iter := store.Iterate(unbondedBucket.Range())
	defer iter.Release()
	for iter.Next() {
		account := anchor.AccountID(iter.Key()[len(unbondedBucket):])
		var refs []UnbondedStakeReference
		if err := rlp.DecodeBytes(iter.Value(), &refs); err != nil {
			return nil, errors.Wrapf(err, "decode unbonded stakes of %s", account)
		}
		t.refs[account] = refs
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "load unbonded stakes")
	}
	return t, nil
}

// Has reports whether the account holds any pending reference.
func (t *UnbondingTracker) Has(account anchor.AccountID) bool {
	return len(t.refs[account]) > 0
}

// Get returns the account's pending references in recording order.
func (t *UnbondingTracker) Get(account anchor.AccountID) []UnbondedStakeReference {
	return t.refs[account]
}

// Add appends a reference for the account and stages the updated list.
func (t *UnbondingTracker) Add(w kv.Putter, account anchor.AccountID, ref UnbondedStakeReference) error {
	return t.Replace(w, account, append(t.refs[account], ref))
}

// Replace swaps the account's reference list, deleting the entry when the
// list becomes empty.
func (t *UnbondingTracker) Replace(w kv.Putter, account anchor.AccountID, refs []UnbondedStakeReference) error {
	key := unbondedBucket.Key([]byte(account))
	if len(refs) == 0 {
		delete(t.refs, account)
		return w.Delete(key)
	}
	data, err := rlp.EncodeToBytes(refs)
	if err != nil {
		return errors.Wrapf(err, "encode unbonded stakes of %s", account)
	}
	if err := w.Put(key, data); err != nil {
		return err
	}
	t.refs[account] = refs
	return nil
}
