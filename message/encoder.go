// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package message

import "github.com/pkg/errors"

// Encode serializes messages into the envelope wire form. The anchor itself
// only decodes; encoding is for relayer-side tooling and round-trip tests.
func Encode(msgs []Message) ([]byte, error) {
	w := &writer{}
	w.u32(uint32(len(msgs)))
	for i, m := range msgs {
		tag, payload, err := encodePayload(m.Event)
		if err != nil {
			return nil, errors.WithMessagef(err, "entry %d", i)
		}
		w.u64(m.Nonce)
		w.u8(uint8(tag))
		w.bytes(payload)
	}
	return w.buf, nil
}

func encodePayload(event Event) (PayloadType, []byte, error) {
	w := &writer{}
	switch e := event.(type) {
	case NativeLocked:
		w.string(string(e.OwnerIDInAppchain))
		w.string(string(e.ReceiverID))
		if err := w.u128(e.Amount); err != nil {
			return 0, nil, err
		}
		return PayloadLock, w.buf, nil
	case AssetBurnt:
		w.string(e.Symbol)
		w.string(string(e.OwnerIDInAppchain))
		w.string(string(e.ReceiverID))
		if err := w.u128(e.Amount); err != nil {
			return 0, nil, err
		}
		return PayloadBurnAsset, w.buf, nil
	case EraPlanned:
		w.u32(uint32(e.EraNumber))
		return PayloadPlanNewEra, w.buf, nil
	case EraPayoutConcluded:
		w.u32(uint32(e.EraNumber))
		if err := w.u128(e.Payout); err != nil {
			return 0, nil, err
		}
		ids := make([]string, len(e.UnprofitableValidatorIDs))
		for i, id := range e.UnprofitableValidatorIDs {
			ids[i] = string(id)
		}
		w.stringSlice(ids)
		return PayloadEraPayout, w.buf, nil
	default:
		return 0, nil, errors.Errorf("unknown event type %T", event)
	}
}
