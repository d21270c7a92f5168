// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package era

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/kv"
)

const historiesCacheSize = 8

var (
	eraBucket  = kv.Bucket("e")
	eraMetaKey = []byte("e-end")
)

// Histories is the store of sealed eras, contiguous from 0. The latest era is
// re-saved every time its processing state moves.
type Histories struct {
	store kv.Getter
	cache *lru.Cache

	count uint64 // era numbers are [0, count)
}

// NewHistories loads the era history state from the store.
func NewHistories(store kv.Getter) (*Histories, error) {
	cache, err := lru.New(historiesCacheSize)
	if err != nil {
		return nil, err
	}
	h := &Histories{store: store, cache: cache}

	data, err := store.Get(eraMetaKey)
	if err != nil {
		if store.IsNotFound(err) {
			return h, nil
		}
		return nil, errors.Wrap(err, "load era history meta")
	}
	if err := rlp.DecodeBytes(data, &h.count); err != nil {
		return nil, errors.Wrap(err, "decode era history meta")
	}
	return h, nil
}

// Count returns the number of stored eras.
func (h *Histories) Count() uint64 {
	return h.count
}

// IndexRange returns the inclusive range of stored era numbers. With no eras
// both bounds are zero.
func (h *Histories) IndexRange() anchor.IndexRange {
	if h.count == 0 {
		return anchor.IndexRange{}
	}
	return anchor.IndexRange{StartIndex: 0, EndIndex: h.count - 1}
}

// Get returns the era with the given number, or nil if out of range.
func (h *Histories) Get(number uint64) (*Era, error) {
	if number >= h.count {
		return nil, nil
	}
	if cached, ok := h.cache.Get(number); ok {
		return cached.(*Era), nil
	}
	data, err := h.store.Get(eraBucket.Key(numberKey(number)))
	if err != nil {
		return nil, errors.Wrapf(err, "load era %d", number)
	}
	var e Era
	if err := rlp.DecodeBytes(data, &e); err != nil {
		return nil, errors.Wrapf(err, "decode era %d", number)
	}
	h.cache.Add(number, &e)
	return &e, nil
}

// Save stages the era into w, bumping the end index when the era is new. Eras
// can only be appended in order.
func (h *Histories) Save(w kv.Putter, e *Era) error {
	if e.Number() > h.count {
		return errors.Errorf("era %d saved out of order, next is %d", e.Number(), h.count)
	}
	data, err := rlp.EncodeToBytes(e)
	if err != nil {
		return errors.Wrapf(err, "encode era %d", e.Number())
	}
	if err := w.Put(eraBucket.Key(numberKey(e.Number())), data); err != nil {
		return err
	}
	if e.Number() == h.count {
		h.count++
		meta, err := rlp.EncodeToBytes(h.count)
		if err != nil {
			return errors.Wrap(err, "encode era history meta")
		}
		if err := w.Put(eraMetaKey, meta); err != nil {
			return err
		}
	}
	h.cache.Add(e.Number(), e)
	return nil
}

func numberKey(number uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], number)
	return k[:]
}
