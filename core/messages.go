// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/kv"
	"github.com/anchornet/anchor/message"
)

type transfer struct {
	recipient anchor.AccountID
	amount    *big.Int
}

// HandleProofBatch decodes one verified proof blob and applies its messages
// in order. Decoding is all-or-nothing, and every nonce in the batch must be
// strictly newer than the last handled one; a batch failing either gate
// changes nothing.
//
// Messages then commit one by one: a message whose handling is rejected is
// logged, its nonce consumed, and processing continues with the next one, so
// a bad message can never wedge the relay.
func (a *AppchainAnchor) HandleProofBatch(data []byte) error {
	msgs, err := message.Decode(data)
	if err != nil {
		return errors.WithMessage(err, "decode proof batch")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	last := a.lastNonce
	for _, m := range msgs {
		if m.Nonce <= last {
			return errors.Errorf("message nonce %d is not newer than %d", m.Nonce, last)
		}
		last = m.Nonce
	}

	for _, m := range msgs {
		b := a.store.NewBatch()
		var transfers []transfer
		if err := a.handleMessage(b, m, &transfers); err != nil {
			// handlers validate before mutating, so a rejected message has
			// staged nothing and touched no component state
			logger.Warn("appchain message rejected", "nonce", m.Nonce, "err", err)
			metricRejectedMessages().Add(1)
			b = a.store.NewBatch()
			transfers = nil
		}
		if err := a.saveLastNonce(b, m.Nonce); err != nil {
			return err
		}
		if err := a.commit(b); err != nil {
			return errors.Wrapf(err, "commit message %d", m.Nonce)
		}
		metricHandledMessages().Add(1)
		a.execute(transfers)
	}
	return nil
}

func (a *AppchainAnchor) handleMessage(b kv.Batch, m message.Message, transfers *[]transfer) error {
	switch ev := m.Event.(type) {
	case message.EraPlanned:
		_, err := a.lifecycle.StartEra(b, ev.EraNumber, a.now())
		return err

	case message.EraPayoutConcluded:
		return a.concludePayout(b, ev)

	case message.NativeLocked:
		logger.Info("native tokens locked on appchain",
			"owner", ev.OwnerIDInAppchain,
			"receiver", ev.ReceiverID,
			"amount", ev.Amount)
		*transfers = append(*transfers, transfer{ev.ReceiverID, ev.Amount})
		return nil

	case message.AssetBurnt:
		logger.Info("bridged asset burnt on appchain",
			"symbol", ev.Symbol,
			"owner", ev.OwnerIDInAppchain,
			"receiver", ev.ReceiverID,
			"amount", ev.Amount)
		*transfers = append(*transfers, transfer{ev.ReceiverID, ev.Amount})
		return nil

	default:
		return errors.Errorf("unhandled event type %T", m.Event)
	}
}

// concludePayout resolves the appchain-side ids of the unprofitable
// validators against the era's own snapshot. Ids the era does not know are
// skipped: the appchain may report validators that unbonded before sealing.
func (a *AppchainAnchor) concludePayout(b kv.Batch, ev message.EraPayoutConcluded) error {
	e := a.lifecycle.Current()
	if e == nil || e.Number() != ev.EraNumber {
		return errors.Errorf("payout concluded for era %d which is not the current era", ev.EraNumber)
	}
	ids := make([]anchor.AccountID, 0, len(ev.UnprofitableValidatorIDs))
	for _, appchainID := range ev.UnprofitableValidatorIDs {
		id, ok := e.Set().ValidatorIDByAppchainID(appchainID)
		if !ok {
			logger.Warn("unknown unprofitable validator", "era", ev.EraNumber, "appchainID", appchainID)
			continue
		}
		ids = append(ids, id)
	}
	return a.lifecycle.ConcludePayout(b, ev.EraNumber, ev.Payout, ids)
}

// execute runs transfers after the owning batch has committed. A failed
// transfer is the transferor's to retry; the anchor's books already moved.
func (a *AppchainAnchor) execute(transfers []transfer) {
	for _, tr := range transfers {
		if err := a.transferor.Transfer(tr.recipient, tr.amount); err != nil {
			logger.Error("asset transfer failed",
				"recipient", tr.recipient,
				"amount", tr.amount,
				"err", err)
		}
	}
}
