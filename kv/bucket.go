// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket is a logical key namespace inside a store.
type Bucket string

// Key prefixes the given key with the bucket.
func (b Bucket) Key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	return append(append(k, b...), key...)
}

// Range returns the key range covering the whole bucket.
func (b Bucket) Range() Range {
	r := util.BytesPrefix([]byte(b))
	return Range{Start: r.Start, Limit: r.Limit}
}
