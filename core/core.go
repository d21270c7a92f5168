// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package core wires the anchor components together: it routes decoded
// appchain messages, records staking actions into the ledger and the live
// validator set, drives the era pipeline, and settles withdrawals.
//
// Every mutating operation validates first, then stages all of its writes
// into a single store batch, so an invocation either fully commits or leaves
// the persisted state untouched. Asset transfers run only after the commit.
package core

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/era"
	"github.com/anchornet/anchor/kv"
	"github.com/anchornet/anchor/log"
	"github.com/anchornet/anchor/metrics"
	"github.com/anchornet/anchor/rewards"
	"github.com/anchornet/anchor/staking"
	"github.com/anchornet/anchor/validatorset"
)

var (
	logger = log.WithContext("pkg", "core")

	metricHandledMessages  = metrics.LazyLoadCounter("core_handled_message_count")
	metricRejectedMessages = metrics.LazyLoadCounter("core_rejected_message_count")
	metricRecordedFacts    = metrics.LazyLoadCounter("core_recorded_fact_count")
)

var (
	liveSetKey   = []byte("ns")
	lastNonceKey = []byte("nonce")
)

// Transferor moves tokens out of the anchor's custody. Implementations own
// the transfer mechanics; the core only decides who gets how much, and only
// after its own bookkeeping is committed.
type Transferor interface {
	Transfer(recipient anchor.AccountID, amount *big.Int) error
}

// AppchainAnchor is the anchor's state root. All public methods are safe for
// concurrent use; each serializes on one mutex, matching the strictly
// sequential semantics of the underlying components.
type AppchainAnchor struct {
	mu sync.Mutex

	store      kv.Store
	chrono     anchor.Chrono
	transferor Transferor
	settings   *anchor.ProtocolSettings
	sliceSize  uint64

	ledger    *staking.Ledger
	unbonded  *staking.UnbondingTracker
	rewards   *rewards.Ledger
	lifecycle *era.Lifecycle

	// liveSet accumulates every recorded fact and is the state new staking
	// actions are validated against. Sealed eras rebuild their own snapshots
	// from the ledger instead of referencing it.
	liveSet   *validatorset.Set
	lastNonce uint64
}

// New loads all components from the store. On an empty store era 0 is sealed
// immediately at the current chain position.
func New(store kv.Store, chrono anchor.Chrono, transferor Transferor, settings *anchor.ProtocolSettings, sliceSize uint64) (*AppchainAnchor, error) {
	a := &AppchainAnchor{
		store:      store,
		chrono:     chrono,
		transferor: transferor,
		settings:   settings,
		sliceSize:  sliceSize,
	}
	if err := a.load(); err != nil {
		return nil, err
	}

	if a.lifecycle.Histories().Count() == 0 {
		b := store.NewBatch()
		if _, err := a.lifecycle.StartEra(b, 0, a.now()); err != nil {
			return nil, err
		}
		if err := b.Write(); err != nil {
			return nil, errors.Wrap(err, "seal genesis era")
		}
	}
	return a, nil
}

// load (re)builds every in-memory mirror from the persisted state.
func (a *AppchainAnchor) load() error {
	ledger, err := staking.NewLedger(a.store)
	if err != nil {
		return err
	}
	unbonded, err := staking.NewUnbondingTracker(a.store)
	if err != nil {
		return err
	}
	rewardLedger, err := rewards.NewLedger(a.store)
	if err != nil {
		return err
	}
	lifecycle, err := era.NewLifecycle(a.store, ledger, rewardLedger, a.settings, a.sliceSize)
	if err != nil {
		return err
	}
	a.ledger = ledger
	a.unbonded = unbonded
	a.rewards = rewardLedger
	a.lifecycle = lifecycle

	if data, err := a.store.Get(liveSetKey); err != nil {
		if !a.store.IsNotFound(err) {
			return errors.Wrap(err, "load live validator set")
		}
		a.liveSet = validatorset.New(0)
	} else {
		var set validatorset.Set
		if err := rlp.DecodeBytes(data, &set); err != nil {
			return errors.Wrap(err, "decode live validator set")
		}
		a.liveSet = &set
	}

	a.lastNonce = 0
	if data, err := a.store.Get(lastNonceKey); err != nil {
		if !a.store.IsNotFound(err) {
			return errors.Wrap(err, "load last nonce")
		}
	} else if err := rlp.DecodeBytes(data, &a.lastNonce); err != nil {
		return errors.Wrap(err, "decode last nonce")
	}
	return nil
}

// commit writes the batch. The components update their in-memory state while
// staging, so on a write failure memory has run ahead of the store; it is
// rebuilt from the persisted state before the error is returned.
func (a *AppchainAnchor) commit(b kv.Batch) error {
	if err := b.Write(); err != nil {
		return a.resync(err)
	}
	return nil
}

// resync reloads the in-memory mirrors after an error that may have left them
// ahead of the store, then passes the error through.
func (a *AppchainAnchor) resync(err error) error {
	if lerr := a.load(); lerr != nil {
		return errors.Wrapf(lerr, "reload state after: %v", err)
	}
	return err
}

// Settings returns the protocol settings the anchor runs with.
func (a *AppchainAnchor) Settings() *anchor.ProtocolSettings { return a.settings }

func (a *AppchainAnchor) now() anchor.RecordedAt {
	return anchor.RecordedAt{BlockHeight: a.chrono.BlockHeight(), Timestamp: a.chrono.Timestamp()}
}

func (a *AppchainAnchor) saveLiveSet(w kv.Putter) error {
	data, err := rlp.EncodeToBytes(a.liveSet)
	if err != nil {
		return errors.Wrap(err, "encode live validator set")
	}
	return w.Put(liveSetKey, data)
}

func (a *AppchainAnchor) saveLastNonce(w kv.Putter, nonce uint64) error {
	data, err := rlp.EncodeToBytes(nonce)
	if err != nil {
		return errors.Wrap(err, "encode last nonce")
	}
	if err := w.Put(lastNonceKey, data); err != nil {
		return err
	}
	a.lastNonce = nonce
	return nil
}

// Advance performs one bounded slice of work on the current era.
func (a *AppchainAnchor) Advance() (era.ProcessingStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := a.store.NewBatch()
	status, err := a.lifecycle.Advance(b)
	if err != nil {
		return status, a.resync(err)
	}
	return status, a.commit(b)
}
