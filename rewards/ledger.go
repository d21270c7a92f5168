// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards keeps the per-era unwithdrawn reward balances of
// validators and delegators. Balances older than the retention window are
// forfeited: withdrawals never look further back.
package rewards

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/kv"
)

var (
	validatorBucket = kv.Bucket("rv")
	delegatorBucket = kv.Bucket("rd")
)

// account ids never contain a NUL, so it can separate compound keys
const keySep = byte(0)

type validatorKey struct {
	era       uint64
	validator anchor.AccountID
}

type delegatorKey struct {
	era       uint64
	delegator anchor.AccountID
	validator anchor.AccountID
}

// Ledger holds the unwithdrawn rewards in memory and writes every change
// through to the caller's batch.
type Ledger struct {
	validators map[validatorKey]*big.Int
	delegators map[delegatorKey]*big.Int
}

// NewLedger loads all unwithdrawn rewards from the store.
func NewLedger(store kv.Store) (*Ledger, error) {
	l := &Ledger{
		validators: make(map[validatorKey]*big.Int),
		delegators: make(map[delegatorKey]*big.Int),
	}

	iter := store.Iterate(validatorBucket.Range())
	for iter.Next() {
		k := iter.Key()[len(validatorBucket):]
		if len(k) < 8 {
			iter.Release()
			return nil, errors.New("malformed validator reward key")
		}
		amount := new(big.Int)
		if err := rlp.DecodeBytes(iter.Value(), amount); err != nil {
			iter.Release()
			return nil, errors.Wrap(err, "decode validator reward")
		}
		l.validators[validatorKey{
			era:       binary.BigEndian.Uint64(k[:8]),
			validator: anchor.AccountID(k[8:]),
		}] = amount
	}
	if err := iter.Error(); err != nil {
		iter.Release()
		return nil, errors.Wrap(err, "load validator rewards")
	}
	iter.Release()

	iter = store.Iterate(delegatorBucket.Range())
	defer iter.Release()
	for iter.Next() {
		k := iter.Key()[len(delegatorBucket):]
		if len(k) < 8 {
			return nil, errors.New("malformed delegator reward key")
		}
		sep := bytes.IndexByte(k[8:], keySep)
		if sep < 0 {
			return nil, errors.New("malformed delegator reward key")
		}
		amount := new(big.Int)
		if err := rlp.DecodeBytes(iter.Value(), amount); err != nil {
			return nil, errors.Wrap(err, "decode delegator reward")
		}
		l.delegators[delegatorKey{
			era:       binary.BigEndian.Uint64(k[:8]),
			delegator: anchor.AccountID(k[8 : 8+sep]),
			validator: anchor.AccountID(k[8+sep+1:]),
		}] = amount
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "load delegator rewards")
	}
	return l, nil
}

// AccrueValidator adds delta to the validator's reward of the era.
func (l *Ledger) AccrueValidator(w kv.Putter, era uint64, validatorID anchor.AccountID, delta *big.Int) error {
	if delta.Sign() == 0 {
		return nil
	}
	key := validatorKey{era, validatorID}
	amount, ok := l.validators[key]
	if !ok {
		amount = new(big.Int)
		l.validators[key] = amount
	}
	amount.Add(amount, delta)
	return putAmount(w, rawValidatorKey(era, validatorID), amount)
}

// AccrueDelegator adds delta to the delegator's reward of the era for the
// given validator.
func (l *Ledger) AccrueDelegator(w kv.Putter, era uint64, delegatorID, validatorID anchor.AccountID, delta *big.Int) error {
	if delta.Sign() == 0 {
		return nil
	}
	key := delegatorKey{era, delegatorID, validatorID}
	amount, ok := l.delegators[key]
	if !ok {
		amount = new(big.Int)
		l.delegators[key] = amount
	}
	amount.Add(amount, delta)
	return putAmount(w, rawDelegatorKey(era, delegatorID, validatorID), amount)
}

// ValidatorReward returns the unwithdrawn reward of the validator for the
// era, zero if none.
func (l *Ledger) ValidatorReward(era uint64, validatorID anchor.AccountID) *big.Int {
	if amount, ok := l.validators[validatorKey{era, validatorID}]; ok {
		return new(big.Int).Set(amount)
	}
	return new(big.Int)
}

// DelegatorReward returns the unwithdrawn reward of the (delegator,
// validator) pair for the era, zero if none.
func (l *Ledger) DelegatorReward(era uint64, delegatorID, validatorID anchor.AccountID) *big.Int {
	if amount, ok := l.delegators[delegatorKey{era, delegatorID, validatorID}]; ok {
		return new(big.Int).Set(amount)
	}
	return new(big.Int)
}

// ForfeitedValidatorRewards sums the validator's rewards recorded before the
// given era, the part a bounded-window withdrawal will never pay out.
func (l *Ledger) ForfeitedValidatorRewards(validatorID anchor.AccountID, before uint64) *big.Int {
	total := new(big.Int)
	for key, amount := range l.validators {
		if key.validator == validatorID && key.era < before {
			total.Add(total, amount)
		}
	}
	return total
}

// ForfeitedDelegatorRewards sums the pair's rewards recorded before the given
// era.
func (l *Ledger) ForfeitedDelegatorRewards(delegatorID, validatorID anchor.AccountID, before uint64) *big.Int {
	total := new(big.Int)
	for key, amount := range l.delegators {
		if key.delegator == delegatorID && key.validator == validatorID && key.era < before {
			total.Add(total, amount)
		}
	}
	return total
}

// WithdrawValidator sums and clears the validator's rewards of the eras in
// [startEra, endEra). Rewards outside the window stay untouched (and are
// therefore forfeited once the window has moved past them).
func (l *Ledger) WithdrawValidator(w kv.Putter, validatorID anchor.AccountID, startEra, endEra uint64) (*big.Int, error) {
	total := new(big.Int)
	for era := startEra; era < endEra; era++ {
		key := validatorKey{era, validatorID}
		amount, ok := l.validators[key]
		if !ok {
			continue
		}
		total.Add(total, amount)
		delete(l.validators, key)
		if err := w.Delete(rawValidatorKey(era, validatorID)); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// WithdrawDelegator sums and clears the pair's rewards of the eras in
// [startEra, endEra).
func (l *Ledger) WithdrawDelegator(w kv.Putter, delegatorID, validatorID anchor.AccountID, startEra, endEra uint64) (*big.Int, error) {
	total := new(big.Int)
	for era := startEra; era < endEra; era++ {
		key := delegatorKey{era, delegatorID, validatorID}
		amount, ok := l.delegators[key]
		if !ok {
			continue
		}
		total.Add(total, amount)
		delete(l.delegators, key)
		if err := w.Delete(rawDelegatorKey(era, delegatorID, validatorID)); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func putAmount(w kv.Putter, key []byte, amount *big.Int) error {
	data, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return errors.Wrap(err, "encode reward amount")
	}
	return w.Put(key, data)
}

func rawValidatorKey(era uint64, validatorID anchor.AccountID) []byte {
	k := make([]byte, 8, 8+len(validatorID))
	binary.BigEndian.PutUint64(k, era)
	return validatorBucket.Key(append(k, validatorID...))
}

func rawDelegatorKey(era uint64, delegatorID, validatorID anchor.AccountID) []byte {
	k := make([]byte, 8, 8+len(delegatorID)+1+len(validatorID))
	binary.BigEndian.PutUint64(k, era)
	k = append(k, delegatorID...)
	k = append(k, keySep)
	return delegatorBucket.Key(append(k, validatorID...))
}
