// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Getter wraps methods for reading kvs.
type Getter interface {
	// Get returns the value for the given key. The returned error can be
	// checked via IsNotFound when the key is absent.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter wraps methods for writing kvs.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Batch is an atomic group of write ops. Nothing is persisted until Write.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Range is a key range. Start is included, Limit excluded.
type Range struct {
	Start []byte
	Limit []byte
}

// Iterator iterates over kv pairs in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Store is the full functional kv store.
type Store interface {
	Getter
	Putter

	NewBatch() Batch
	Iterate(r Range) Iterator
	Close() error
}
