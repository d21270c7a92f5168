// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package anchor

// AccountID identifies an account in the anchor chain.
type AccountID string

// AppchainAccountID identifies an account in the appchain, in the appchain's
// own address format. It is opaque to the anchor.
type AppchainAccountID string

const (
	// SecondsOfADay is used to convert unlock periods, which settings express
	// in days, into timestamp deltas.
	SecondsOfADay uint64 = 86400

	// NanoSecondsMultiple converts seconds to the nanosecond timestamps used
	// throughout the anchor.
	NanoSecondsMultiple uint64 = 1_000_000_000
)

// IndexRange is the inclusive range of valid indices of an append-only,
// densely indexed history.
type IndexRange struct {
	StartIndex uint64 `json:"startIndex"`
	EndIndex   uint64 `json:"endIndex"`
}

// RecordedAt stamps a record with the chain position at which it was stored.
type RecordedAt struct {
	BlockHeight uint64 `json:"blockHeight"`
	Timestamp   uint64 `json:"timestamp"` // nanoseconds
}

// Chrono supplies the current block height and timestamp. The anchor never
// reads wall-clock time directly; every record is stamped through a Chrono so
// tests and replays stay deterministic.
type Chrono interface {
	BlockHeight() uint64
	Timestamp() uint64
}
