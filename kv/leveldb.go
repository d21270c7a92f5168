// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

type levelDB struct {
	db *leveldb.DB
}

func openLevelDB(stg storage.Storage, cacheSize int) (*levelDB, error) {
	if cacheSize < 128 {
		cacheSize = 128
	}
	db, err := leveldb.Open(stg, &opt.Options{
		BlockCacheCapacity: cacheSize / 2 * opt.MiB,
		WriteBuffer:        cacheSize / 4 * opt.MiB,
		Filter:             filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &levelDB{db: db}, nil
}

// Open opens or creates a persistent store at the given path.
func Open(path string, cacheSize int) (Store, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db storage")
	}
	return openLevelDB(stg, cacheSize)
}

// OpenMem creates an in-memory store, mainly for tests and ephemeral runs.
func OpenMem() Store {
	db, err := openLevelDB(storage.NewMemStorage(), 0)
	if err != nil {
		// memory storage cannot fail to open
		panic(errors.Wrap(err, "open mem level db"))
	}
	return db
}

func (l *levelDB) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, readOpt)
}

func (l *levelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, readOpt)
}

func (l *levelDB) IsNotFound(err error) bool {
	return errors.Cause(err) == leveldb.ErrNotFound
}

func (l *levelDB) Put(key, val []byte) error {
	return l.db.Put(key, val, writeOpt)
}

func (l *levelDB) Delete(key []byte) error {
	return l.db.Delete(key, writeOpt)
}

func (l *levelDB) NewBatch() Batch {
	return &levelDBBatch{l.db, &leveldb.Batch{}}
}

func (l *levelDB) Iterate(r Range) Iterator {
	return l.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, readOpt)
}

func (l *levelDB) Close() error {
	return l.db.Close()
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Put(key, val []byte) error {
	b.batch.Put(key, val)
	return nil
}

func (b *levelDBBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelDBBatch) Len() int {
	return b.batch.Len()
}

func (b *levelDBBatch) Write() error {
	return b.db.Write(b.batch, writeOpt)
}
