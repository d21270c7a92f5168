// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package message

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchornet/anchor/anchor"
)

func bigPow(base, exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(base), big.NewInt(exp), nil)
}

func TestRoundTripAllPayloadTypes(t *testing.T) {
	// includes an amount above 64 bits to cover the full u128 path
	hugeAmount := new(big.Int).Add(bigPow(2, 100), big.NewInt(7))

	msgs := []Message{
		{Nonce: 1, Event: NativeLocked{
			OwnerIDInAppchain: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
			ReceiverID:        "alice.testnet",
			Amount:            big.NewInt(1_000_000),
		}},
		{Nonce: 2, Event: AssetBurnt{
			Symbol:            "USDC",
			OwnerIDInAppchain: "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty",
			ReceiverID:        "bob.testnet",
			Amount:            hugeAmount,
		}},
		{Nonce: 3, Event: EraPlanned{EraNumber: 42}},
		{Nonce: 4, Event: EraPayoutConcluded{
			EraNumber:                41,
			Payout:                   big.NewInt(1_000),
			UnprofitableValidatorIDs: []anchor.AppchainAccountID{"v-one", "v-two"},
		}},
	}
	// the exclude list is appchain ids
	payout := msgs[3].Event.(EraPayoutConcluded)
	require.Len(t, payout.UnprofitableValidatorIDs, 2)

	data, err := Encode(msgs)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, 4)

	assert.Equal(t, uint64(1), decoded[0].Nonce)
	locked := decoded[0].Event.(NativeLocked)
	assert.EqualValues(t, "alice.testnet", locked.ReceiverID)
	assert.Zero(t, locked.Amount.Cmp(big.NewInt(1_000_000)))

	burnt := decoded[1].Event.(AssetBurnt)
	assert.Equal(t, "USDC", burnt.Symbol)
	assert.Zero(t, burnt.Amount.Cmp(hugeAmount))

	planned := decoded[2].Event.(EraPlanned)
	assert.Equal(t, uint64(42), planned.EraNumber)

	concluded := decoded[3].Event.(EraPayoutConcluded)
	assert.Equal(t, uint64(41), concluded.EraNumber)
	assert.Zero(t, concluded.Payout.Cmp(big.NewInt(1_000)))
	assert.EqualValues(t, "v-one", concluded.UnprofitableValidatorIDs[0])
}

func TestDecodePreservesOrder(t *testing.T) {
	msgs := []Message{
		{Nonce: 9, Event: EraPlanned{EraNumber: 3}},
		{Nonce: 7, Event: EraPlanned{EraNumber: 1}},
		{Nonce: 8, Event: EraPlanned{EraNumber: 2}},
	}
	data, err := Encode(msgs)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	nonces := []uint64{decoded[0].Nonce, decoded[1].Nonce, decoded[2].Nonce}
	assert.Equal(t, []uint64{9, 7, 8}, nonces)
}

func TestDecodeMalformedBatchIsAllOrNothing(t *testing.T) {
	msgs := []Message{
		{Nonce: 1, Event: EraPlanned{EraNumber: 1}},
		{Nonce: 2, Event: EraPlanned{EraNumber: 2}},
		{Nonce: 3, Event: NativeLocked{OwnerIDInAppchain: "x", ReceiverID: "y", Amount: big.NewInt(5)}},
	}
	data, err := Encode(msgs)
	require.NoError(t, err)

	// corrupt the last entry's payload by truncating the envelope
	corrupted := data[:len(data)-3]

	decoded, err := Decode(corrupted)
	assert.Error(t, err)
	assert.Nil(t, decoded, "a malformed entry must discard the whole batch")
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	w := &writer{}
	w.u32(1)
	w.u64(1)
	w.u8(0xff)
	w.bytes([]byte{1, 2, 3})

	_, err := Decode(w.buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown payload type")
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode([]Message{{Nonce: 1, Event: EraPlanned{EraNumber: 1}}})
	require.NoError(t, err)

	_, err = Decode(append(data, 0x00))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing")
}

func TestDecodeRejectsPayloadWithTrailingBytes(t *testing.T) {
	w := &writer{}
	w.u32(1)
	w.u64(1)
	w.u8(uint8(PayloadPlanNewEra))
	w.bytes([]byte{1, 0, 0, 0, 0xaa}) // u32 era plus one stray byte

	_, err := Decode(w.buf)
	require.Error(t, err)
}

func TestDecodeRejectsOverstatedEntryCount(t *testing.T) {
	// a four-byte input whose count claims ~4 billion entries must come back
	// as an error, not as a giant allocation
	decoded, err := Decode([]byte{0xff, 0xff, 0xff, 0xff})
	require.Error(t, err)
	assert.Nil(t, decoded)
	assert.Contains(t, err.Error(), "entries")
}

func TestDecodeRejectsOverstatedSequenceCount(t *testing.T) {
	p := &writer{}
	p.u32(41)
	require.NoError(t, p.u128(big.NewInt(1_000)))
	p.u32(0xffff_ffff) // sequence count with no items following

	w := &writer{}
	w.u32(1)
	w.u64(1)
	w.u8(uint8(PayloadEraPayout))
	w.bytes(p.buf)

	_, err := Decode(w.buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items")
}

func TestEncodeRejectsOversizedAmount(t *testing.T) {
	_, err := Encode([]Message{{Nonce: 1, Event: NativeLocked{
		OwnerIDInAppchain: "x",
		ReceiverID:        "y",
		Amount:            bigPow(2, 128),
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u128")
}
