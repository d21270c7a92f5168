// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchornet/anchor/kv"
)

func TestAccrueAndQuery(t *testing.T) {
	store := kv.OpenMem()
	l, err := NewLedger(store)
	require.NoError(t, err)

	b := store.NewBatch()
	require.NoError(t, l.AccrueValidator(b, 3, "val-a", big.NewInt(100)))
	require.NoError(t, l.AccrueValidator(b, 3, "val-a", big.NewInt(20)))
	require.NoError(t, l.AccrueDelegator(b, 3, "del-d", "val-a", big.NewInt(7)))
	require.NoError(t, b.Write())

	assert.Zero(t, l.ValidatorReward(3, "val-a").Cmp(big.NewInt(120)))
	assert.Zero(t, l.DelegatorReward(3, "del-d", "val-a").Cmp(big.NewInt(7)))
	assert.Zero(t, l.ValidatorReward(2, "val-a").Sign())

	// a zero delta records nothing
	require.NoError(t, l.AccrueValidator(store, 4, "val-b", new(big.Int)))
	assert.Zero(t, l.ValidatorReward(4, "val-b").Sign())
}

func TestWithdrawalHonorsWindow(t *testing.T) {
	store := kv.OpenMem()
	l, err := NewLedger(store)
	require.NoError(t, err)

	b := store.NewBatch()
	for era := uint64(0); era < 5; era++ {
		require.NoError(t, l.AccrueValidator(b, era, "val-a", big.NewInt(int64(era+1)*10)))
		require.NoError(t, l.AccrueDelegator(b, era, "del-d", "val-a", big.NewInt(int64(era+1))))
	}
	require.NoError(t, b.Write())

	// eras 0..2 lie before the window and are reported as forfeited
	assert.Zero(t, l.ForfeitedValidatorRewards("val-a", 3).Cmp(big.NewInt(60)))
	assert.Zero(t, l.ForfeitedDelegatorRewards("del-d", "val-a", 3).Cmp(big.NewInt(6)))

	b = store.NewBatch()
	total, err := l.WithdrawValidator(b, "val-a", 3, 5)
	require.NoError(t, err)
	require.NoError(t, b.Write())
	assert.Zero(t, total.Cmp(big.NewInt(90)), "eras 3 and 4 only")

	b = store.NewBatch()
	dtotal, err := l.WithdrawDelegator(b, "del-d", "val-a", 3, 5)
	require.NoError(t, err)
	require.NoError(t, b.Write())
	assert.Zero(t, dtotal.Cmp(big.NewInt(9)))

	// in-window balances are cleared, the forfeited ones stay behind and a
	// second withdrawal over the same window finds nothing
	assert.Zero(t, l.ValidatorReward(4, "val-a").Sign())
	assert.Zero(t, l.ValidatorReward(2, "val-a").Cmp(big.NewInt(30)))
	total, err = l.WithdrawValidator(store, "val-a", 3, 5)
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
}

func TestLedgerSurvivesReopen(t *testing.T) {
	store := kv.OpenMem()
	l, err := NewLedger(store)
	require.NoError(t, err)

	b := store.NewBatch()
	require.NoError(t, l.AccrueValidator(b, 1, "val-a", big.NewInt(11)))
	require.NoError(t, l.AccrueDelegator(b, 1, "del-d", "val-a", big.NewInt(5)))
	require.NoError(t, l.AccrueValidator(b, 2, "val-a", big.NewInt(22)))
	require.NoError(t, b.Write())

	b = store.NewBatch()
	total, err := l.WithdrawValidator(b, "val-a", 2, 3)
	require.NoError(t, err)
	require.NoError(t, b.Write())
	assert.Zero(t, total.Cmp(big.NewInt(22)))

	reopened, err := NewLedger(store)
	require.NoError(t, err)
	assert.Zero(t, reopened.ValidatorReward(1, "val-a").Cmp(big.NewInt(11)))
	assert.Zero(t, reopened.DelegatorReward(1, "del-d", "val-a").Cmp(big.NewInt(5)))
	assert.Zero(t, reopened.ValidatorReward(2, "val-a").Sign())
	assert.Zero(t, reopened.ForfeitedValidatorRewards("val-a", 2).Cmp(big.NewInt(11)))
}
