// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/kv"
)

const ledgerCacheSize = 512

var (
	historyBucket = kv.Bucket("sh")
	ledgerMetaKey = []byte("sh-end")
)

// Ledger is the append-only, densely indexed log of staking facts. Entries
// are RLP-encoded in the store; a small LRU keeps decoded entries hot.
//
// Appends are staged into a caller-provided putter so one invocation's writes
// commit atomically; the in-memory end index advances with the staging, which
// requires callers to validate before staging (nothing is staged on a
// rejected operation).
type Ledger struct {
	store kv.Getter
	cache *lru.Cache

	count uint64 // number of stored entries; indices are [0, count)
}

// NewLedger loads the ledger state from the store.
func NewLedger(store kv.Getter) (*Ledger, error) {
	cache, err := lru.New(ledgerCacheSize)
	if err != nil {
		return nil, err
	}
	l := &Ledger{store: store, cache: cache}

	data, err := store.Get(ledgerMetaKey)
	if err != nil {
		if store.IsNotFound(err) {
			return l, nil
		}
		return nil, errors.Wrap(err, "load staking ledger meta")
	}
	if err := rlp.DecodeBytes(data, &l.count); err != nil {
		return nil, errors.Wrap(err, "decode staking ledger meta")
	}
	return l, nil
}

// Append assigns the next sequential index to the fact, stamps it and stages
// it into w. Returns the stored record.
func (l *Ledger) Append(w kv.Putter, fact *Fact, at anchor.RecordedAt) (*History, error) {
	history := &History{
		Fact:       *fact,
		Index:      l.count,
		RecordedAt: at,
	}
	data, err := rlp.EncodeToBytes(history)
	if err != nil {
		return nil, errors.Wrap(err, "encode staking history")
	}
	if err := w.Put(historyBucket.Key(indexKey(history.Index)), data); err != nil {
		return nil, err
	}
	l.count++
	meta, err := rlp.EncodeToBytes(l.count)
	if err != nil {
		return nil, errors.Wrap(err, "encode staking ledger meta")
	}
	if err := w.Put(ledgerMetaKey, meta); err != nil {
		return nil, err
	}
	l.cache.Add(history.Index, history)
	return history, nil
}

// Get returns the entry at the given index, or nil if the index is out of
// range.
func (l *Ledger) Get(index uint64) (*History, error) {
	if index >= l.count {
		return nil, nil
	}
	if cached, ok := l.cache.Get(index); ok {
		return cached.(*History), nil
	}
	data, err := l.store.Get(historyBucket.Key(indexKey(index)))
	if err != nil {
		return nil, errors.Wrapf(err, "load staking history %d", index)
	}
	var history History
	if err := rlp.DecodeBytes(data, &history); err != nil {
		return nil, errors.Wrapf(err, "decode staking history %d", index)
	}
	l.cache.Add(index, &history)
	return &history, nil
}

// Count returns the number of stored entries.
func (l *Ledger) Count() uint64 {
	return l.count
}

// IndexRange returns the inclusive range of valid indices. With no entries
// both bounds are zero.
func (l *Ledger) IndexRange() anchor.IndexRange {
	if l.count == 0 {
		return anchor.IndexRange{}
	}
	return anchor.IndexRange{StartIndex: 0, EndIndex: l.count - 1}
}

func indexKey(index uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], index)
	return k[:]
}
