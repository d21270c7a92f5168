// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package message decodes authenticated appchain proof blobs into typed
// domain events. Decoding is pure and all-or-nothing: a malformed entry
// anywhere in the envelope fails the whole batch and yields no events.
package message

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
)

// PayloadType tags the schema of a raw message payload.
type PayloadType uint8

const (
	PayloadLock PayloadType = iota
	PayloadBurnAsset
	PayloadPlanNewEra
	PayloadEraPayout
)

func (t PayloadType) String() string {
	switch t {
	case PayloadLock:
		return "Lock"
	case PayloadBurnAsset:
		return "BurnAsset"
	case PayloadPlanNewEra:
		return "PlanNewEra"
	case PayloadEraPayout:
		return "EraPayout"
	default:
		return "Unknown"
	}
}

// RawMessage is one entry of the outer envelope: an ordered, nonce-stamped
// opaque payload with its schema tag.
type RawMessage struct {
	Nonce       uint64
	PayloadType PayloadType
	Payload     []byte
}

// Event is a decoded appchain domain event. The set of implementations is
// closed; consumers dispatch with an exhaustive type switch.
type Event interface {
	isEvent()
}

// NativeLocked reports that native tokens were locked on the appchain for an
// account on this side.
type NativeLocked struct {
	OwnerIDInAppchain anchor.AppchainAccountID
	ReceiverID        anchor.AccountID
	Amount            *big.Int
}

// AssetBurnt reports that a bridged fungible asset was burnt on the appchain.
type AssetBurnt struct {
	Symbol            string
	OwnerIDInAppchain anchor.AppchainAccountID
	ReceiverID        anchor.AccountID
	Amount            *big.Int
}

// EraPlanned signals that the appchain planned the switch to a new era.
type EraPlanned struct {
	EraNumber uint64
}

// EraPayoutConcluded signals that the appchain concluded the payout of an
// era, carrying the validators excluded from reward.
type EraPayoutConcluded struct {
	EraNumber                uint64
	Payout                   *big.Int
	UnprofitableValidatorIDs []anchor.AppchainAccountID
}

func (NativeLocked) isEvent()       {}
func (AssetBurnt) isEvent()         {}
func (EraPlanned) isEvent()         {}
func (EraPayoutConcluded) isEvent() {}

// Message pairs a decoded event with the nonce of its raw entry. Within one
// batch messages keep envelope order; ordering across batches is owned by the
// consumer.
type Message struct {
	Nonce uint64
	Event Event
}

// Decode parses an envelope into its ordered messages. Any envelope-level or
// payload-level failure (truncation, unknown tag, trailing bytes) fails the
// whole call with no partial output.
// rawMessageMinSize is the least bytes one raw entry can occupy: the nonce,
// the payload tag and an empty payload's length prefix.
const rawMessageMinSize = 8 + 1 + 4

func Decode(data []byte) ([]Message, error) {
	r := newReader(data)
	count, err := r.u32()
	if err != nil {
		return nil, errors.WithMessage(err, "envelope")
	}
	// the count is untrusted input, reject it before sizing anything by it
	if uint64(count)*rawMessageMinSize > uint64(r.remaining()) {
		return nil, errors.Errorf("envelope claims %d entries, only %d bytes follow", count, r.remaining())
	}
	msgs := make([]Message, 0, count)
	for i := uint32(0); i < count; i++ {
		raw, err := decodeRaw(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "envelope entry %d", i)
		}
		event, err := decodePayload(raw.PayloadType, raw.Payload)
		if err != nil {
			return nil, errors.WithMessagef(err, "entry %d (nonce %d, type %s)", i, raw.Nonce, raw.PayloadType)
		}
		msgs = append(msgs, Message{Nonce: raw.Nonce, Event: event})
	}
	if r.remaining() != 0 {
		return nil, errors.Errorf("envelope has %d trailing bytes", r.remaining())
	}
	return msgs, nil
}

func decodeRaw(r *reader) (*RawMessage, error) {
	nonce, err := r.u64()
	if err != nil {
		return nil, err
	}
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	payload, err := r.bytes()
	if err != nil {
		return nil, err
	}
	return &RawMessage{Nonce: nonce, PayloadType: PayloadType(tag), Payload: payload}, nil
}

func decodePayload(t PayloadType, payload []byte) (Event, error) {
	r := newReader(payload)
	var event Event
	var err error
	switch t {
	case PayloadLock:
		event, err = decodeLock(r)
	case PayloadBurnAsset:
		event, err = decodeBurnAsset(r)
	case PayloadPlanNewEra:
		event, err = decodePlanNewEra(r)
	case PayloadEraPayout:
		event, err = decodeEraPayout(r)
	default:
		return nil, errors.Errorf("unknown payload type %d", uint8(t))
	}
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, errors.Errorf("payload has %d trailing bytes", r.remaining())
	}
	return event, nil
}

func decodeLock(r *reader) (Event, error) {
	owner, err := r.string()
	if err != nil {
		return nil, err
	}
	receiver, err := r.string()
	if err != nil {
		return nil, err
	}
	amount, err := r.u128()
	if err != nil {
		return nil, err
	}
	return NativeLocked{
		OwnerIDInAppchain: anchor.AppchainAccountID(owner),
		ReceiverID:        anchor.AccountID(receiver),
		Amount:            amount,
	}, nil
}

func decodeBurnAsset(r *reader) (Event, error) {
	symbol, err := r.string()
	if err != nil {
		return nil, err
	}
	owner, err := r.string()
	if err != nil {
		return nil, err
	}
	receiver, err := r.string()
	if err != nil {
		return nil, err
	}
	amount, err := r.u128()
	if err != nil {
		return nil, err
	}
	return AssetBurnt{
		Symbol:            symbol,
		OwnerIDInAppchain: anchor.AppchainAccountID(owner),
		ReceiverID:        anchor.AccountID(receiver),
		Amount:            amount,
	}, nil
}

func decodePlanNewEra(r *reader) (Event, error) {
	era, err := r.u32()
	if err != nil {
		return nil, err
	}
	return EraPlanned{EraNumber: uint64(era)}, nil
}

func decodeEraPayout(r *reader) (Event, error) {
	era, err := r.u32()
	if err != nil {
		return nil, err
	}
	payout, err := r.u128()
	if err != nil {
		return nil, err
	}
	exclude, err := r.stringSlice()
	if err != nil {
		return nil, err
	}
	ids := make([]anchor.AppchainAccountID, len(exclude))
	for i, s := range exclude {
		ids[i] = anchor.AppchainAccountID(s)
	}
	return EraPayoutConcluded{EraNumber: uint64(era), Payout: payout, UnprofitableValidatorIDs: ids}, nil
}
