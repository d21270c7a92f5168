// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/era"
	"github.com/anchornet/anchor/kv"
	"github.com/anchornet/anchor/message"
)

func days(n uint64) uint64 {
	return n * anchor.SecondsOfADay * anchor.NanoSecondsMultiple
}

type testChrono struct {
	height uint64
	ts     uint64
}

func (c *testChrono) BlockHeight() uint64 { return c.height }
func (c *testChrono) Timestamp() uint64   { return c.ts }

type testTransferor struct {
	received map[anchor.AccountID]*big.Int
}

func (tr *testTransferor) Transfer(recipient anchor.AccountID, amount *big.Int) error {
	if tr.received == nil {
		tr.received = make(map[anchor.AccountID]*big.Int)
	}
	total, ok := tr.received[recipient]
	if !ok {
		total = new(big.Int)
		tr.received[recipient] = total
	}
	total.Add(total, amount)
	return nil
}

func (tr *testTransferor) totalOf(recipient anchor.AccountID) *big.Int {
	if total, ok := tr.received[recipient]; ok {
		return total
	}
	return new(big.Int)
}

func testSettings() *anchor.ProtocolSettings {
	return &anchor.ProtocolSettings{
		MinimumValidatorDeposit:            big.NewInt(10_000),
		MinimumDelegatorDeposit:            big.NewInt(1_000),
		MinimumTotalStakeForBooting:        big.NewInt(100_000),
		MinimumValidatorCount:              1,
		MaximumValidatorsPerDelegator:      16,
		UnlockPeriodOfValidatorDeposit:     21,
		UnlockPeriodOfDelegatorDeposit:     7,
		MaximumEraCountOfUnwithdrawnReward: 84,
		DelegationFeePercent:               20,
	}
}

type fixture struct {
	anchor     *AppchainAnchor
	store      kv.Store
	chrono     *testChrono
	transferor *testTransferor
	nonce      uint64
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithSettings(t, testSettings())
}

func newFixtureWithSettings(t *testing.T, settings *anchor.ProtocolSettings) *fixture {
	t.Helper()
	f := &fixture{
		store:      kv.OpenMem(),
		chrono:     &testChrono{height: 1, ts: days(1)},
		transferor: &testTransferor{},
	}
	a, err := New(f.store, f.chrono, f.transferor, settings, 0)
	require.NoError(t, err)
	f.anchor = a
	return f
}

// deliver encodes the events as one proof batch with consecutive nonces and
// hands it to the anchor.
func (f *fixture) deliver(t *testing.T, events ...message.Event) {
	t.Helper()
	require.NoError(t, f.tryDeliver(events...))
}

func (f *fixture) tryDeliver(events ...message.Event) error {
	msgs := make([]message.Message, len(events))
	for i, ev := range events {
		f.nonce++
		msgs[i] = message.Message{Nonce: f.nonce, Event: ev}
	}
	data, err := message.Encode(msgs)
	if err != nil {
		return err
	}
	return f.anchor.HandleProofBatch(data)
}

func (f *fixture) advanceUntil(t *testing.T, target era.Phase) {
	t.Helper()
	for i := 0; i < 1_000; i++ {
		status, err := f.anchor.Advance()
		require.NoError(t, err)
		if status.Phase == target {
			return
		}
	}
	t.Fatalf("era did not reach %v", target)
}

// completeCurrentEra drives the current era to Completed with a zero payout.
func (f *fixture) completeCurrentEra(t *testing.T, number uint64) {
	t.Helper()
	f.advanceUntil(t, era.ReadyForDistributingReward)
	f.deliver(t, message.EraPayoutConcluded{EraNumber: number, Payout: new(big.Int)})
	f.advanceUntil(t, era.Completed)
}

func TestGenesisSealsEraZero(t *testing.T) {
	f := newFixture(t)
	assert.EqualValues(t, anchor.IndexRange{StartIndex: 0, EndIndex: 0}, f.anchor.EraIndexRange())

	view, err := f.anchor.Era(0)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.EqualValues(t, days(1), view.StartTimestamp)

	f.completeCurrentEra(t, 0)
	status, err := f.anchor.EraStatus(0)
	require.NoError(t, err)
	assert.Equal(t, "Completed", status.Phase)
}

func TestStakingFlowAndCascadingUnbond(t *testing.T) {
	f := newFixture(t)
	f.completeCurrentEra(t, 0)

	require.NoError(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))
	require.NoError(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)))

	live := f.anchor.LiveValidatorSet()
	require.Len(t, live.Validators, 1)
	assert.Zero(t, live.TotalStake.Cmp(big.NewInt(11_000)))
	assert.Zero(t, live.Validators[0].TotalStake.Cmp(big.NewInt(11_000)))
	assert.Zero(t, live.Validators[0].DepositAmount.Cmp(big.NewInt(10_000)))
	assert.EqualValues(t, 1, live.Validators[0].DelegatorCount)

	require.NoError(t, f.anchor.UnbondStake("val-a"))

	live = f.anchor.LiveValidatorSet()
	assert.Empty(t, live.Validators)
	assert.Zero(t, live.TotalStake.Sign())

	// both the validator's and the delegator's deposits are pending, clocked
	// from the next era
	refsA := f.anchor.UnbondedStakesOf("val-a")
	require.Len(t, refsA, 1)
	assert.EqualValues(t, 1, refsA[0].EraNumber)
	assert.Zero(t, refsA[0].Amount.Cmp(big.NewInt(10_000)))
	refsD := f.anchor.UnbondedStakesOf("del-d")
	require.Len(t, refsD, 1)
	assert.Zero(t, refsD[0].Amount.Cmp(big.NewInt(1_000)))

	// the ledger recorded all three facts
	assert.EqualValues(t, anchor.IndexRange{StartIndex: 0, EndIndex: 2}, f.anchor.StakingHistoryIndexRange())
	history, err := f.anchor.StakingHistory(2)
	require.NoError(t, err)
	assert.EqualValues(t, "val-a", history.Fact.ValidatorID)
}

func TestRegistrationPreconditions(t *testing.T) {
	f := newFixture(t)
	f.completeCurrentEra(t, 0)

	assert.ErrorContains(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(9_999), true), "below the minimum")

	require.NoError(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(10_000), false))
	assert.ErrorContains(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)), "does not accept delegation")

	require.NoError(t, f.anchor.EnableDelegation("val-a"))
	require.NoError(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)))

	// a pending unbonded stake blocks re-registration
	require.NoError(t, f.anchor.UnbondDelegation("del-d", "val-a"))
	assert.ErrorContains(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)), "pending withdrawal")
	assert.ErrorContains(t, f.anchor.RegisterValidator("del-d", "app-d", big.NewInt(10_000), true), "pending withdrawal")
}

func TestEraPlanningAndRewardDistribution(t *testing.T) {
	f := newFixture(t)
	f.completeCurrentEra(t, 0)

	require.NoError(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))
	require.NoError(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)))

	f.chrono.height = 100
	f.chrono.ts = days(2)
	f.deliver(t, message.EraPlanned{EraNumber: 1})
	f.advanceUntil(t, era.ReadyForDistributingReward)

	view, err := f.anchor.Era(1)
	require.NoError(t, err)
	assert.Zero(t, view.TotalStake.Cmp(big.NewInt(11_000)))
	require.Len(t, view.Validators, 1)

	f.deliver(t, message.EraPayoutConcluded{EraNumber: 1, Payout: big.NewInt(1_000)})
	f.advanceUntil(t, era.Completed)

	// share = 1000, validator cut = 1000*10000/11000 = 909, delegator raw =
	// 90, fee 18 goes to the validator
	got, err := f.anchor.WithdrawValidatorRewards("val-a")
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(big.NewInt(927)))
	assert.Zero(t, f.transferor.totalOf("val-a").Cmp(big.NewInt(927)))

	got, err = f.anchor.WithdrawDelegatorRewards("del-d", "val-a")
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(big.NewInt(72)))

	// a second withdrawal finds nothing and moves no assets
	got, err = f.anchor.WithdrawValidatorRewards("val-a")
	require.NoError(t, err)
	assert.Zero(t, got.Sign())
	assert.Zero(t, f.transferor.totalOf("val-a").Cmp(big.NewInt(927)))
}

func TestWithdrawStakeHonorsUnlockPeriods(t *testing.T) {
	f := newFixture(t)
	f.completeCurrentEra(t, 0)

	require.NoError(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))
	require.NoError(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)))
	require.NoError(t, f.anchor.UnbondStake("val-a"))

	// era 1 is not sealed yet, so the unlock clock has not started
	got, err := f.anchor.WithdrawStake("del-d")
	require.NoError(t, err)
	assert.Zero(t, got.Sign())
	assert.Len(t, f.anchor.UnbondedStakesOf("del-d"), 1)

	f.chrono.ts = days(10)
	f.deliver(t, message.EraPlanned{EraNumber: 1})
	f.completeCurrentEra(t, 1)

	// 6 days after era 1 started: delegator period (7 days) not yet over
	f.chrono.ts = days(16)
	got, err = f.anchor.WithdrawStake("del-d")
	require.NoError(t, err)
	assert.Zero(t, got.Sign())

	f.chrono.ts = days(17)
	got, err = f.anchor.WithdrawStake("del-d")
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(big.NewInt(1_000)))
	assert.Zero(t, f.transferor.totalOf("del-d").Cmp(big.NewInt(1_000)))
	assert.Empty(t, f.anchor.UnbondedStakesOf("del-d"))

	// the validator waits 21 days
	got, err = f.anchor.WithdrawStake("val-a")
	require.NoError(t, err)
	assert.Zero(t, got.Sign())

	f.chrono.ts = days(31)
	got, err = f.anchor.WithdrawStake("val-a")
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(big.NewInt(10_000)))
	assert.Empty(t, f.anchor.UnbondedStakesOf("val-a"))
}

func TestNonceGate(t *testing.T) {
	f := newFixture(t)
	f.advanceUntil(t, era.ReadyForDistributingReward)

	f.deliver(t, message.EraPayoutConcluded{EraNumber: 0, Payout: new(big.Int)})

	// replaying the same nonce is rejected before anything changes
	data, err := message.Encode([]message.Message{{Nonce: f.nonce, Event: message.EraPlanned{EraNumber: 1}}})
	require.NoError(t, err)
	assert.ErrorContains(t, f.anchor.HandleProofBatch(data), "not newer")

	// nonces must increase within a batch as well
	data, err = message.Encode([]message.Message{
		{Nonce: f.nonce + 2, Event: message.EraPlanned{EraNumber: 1}},
		{Nonce: f.nonce + 1, Event: message.EraPlanned{EraNumber: 2}},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, f.anchor.HandleProofBatch(data), "not newer")
	assert.EqualValues(t, 1, f.anchor.EraIndexRange().EndIndex+1, "rejected batch must not seal an era")
}

func TestRejectedMessageConsumesItsNonce(t *testing.T) {
	f := newFixture(t)
	f.completeCurrentEra(t, 0)

	// era 99 is out of order, the message is consumed but changes nothing
	require.NoError(t, f.tryDeliver(message.EraPlanned{EraNumber: 99}))
	assert.EqualValues(t, 0, f.anchor.EraIndexRange().EndIndex)

	// its nonce is spent: replaying it fails
	data, err := message.Encode([]message.Message{{Nonce: f.nonce, Event: message.EraPlanned{EraNumber: 1}}})
	require.NoError(t, err)
	assert.ErrorContains(t, f.anchor.HandleProofBatch(data), "not newer")

	// the next nonce still works
	f.deliver(t, message.EraPlanned{EraNumber: 1})
	assert.EqualValues(t, 1, f.anchor.EraIndexRange().EndIndex)
}

func TestLockedTokensAreTransferred(t *testing.T) {
	f := newFixture(t)
	f.deliver(t,
		message.NativeLocked{OwnerIDInAppchain: "app-owner", ReceiverID: "alice", Amount: big.NewInt(500)},
		message.AssetBurnt{Symbol: "USDC", OwnerIDInAppchain: "app-owner", ReceiverID: "alice", Amount: big.NewInt(250)},
	)
	assert.Zero(t, f.transferor.totalOf("alice").Cmp(big.NewInt(750)))
}

func TestStateSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	f.completeCurrentEra(t, 0)

	require.NoError(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))
	require.NoError(t, f.anchor.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)))
	f.deliver(t, message.EraPlanned{EraNumber: 1})

	reopened, err := New(f.store, f.chrono, f.transferor, testSettings(), 0)
	require.NoError(t, err)

	live := reopened.LiveValidatorSet()
	assert.Zero(t, live.TotalStake.Cmp(big.NewInt(11_000)))
	assert.EqualValues(t, anchor.IndexRange{StartIndex: 0, EndIndex: 1}, reopened.EraIndexRange())

	// the nonce gate survives too
	data, err := message.Encode([]message.Message{{Nonce: f.nonce, Event: message.EraPlanned{EraNumber: 2}}})
	require.NoError(t, err)
	assert.ErrorContains(t, reopened.HandleProofBatch(data), "not newer")
}

// flakyStore fails the next batch write when armed, the batch's staged
// content is discarded like a real disk error would.
type flakyStore struct {
	kv.Store
	failNextWrite bool
}

func (s *flakyStore) NewBatch() kv.Batch {
	b := s.Store.NewBatch()
	if s.failNextWrite {
		s.failNextWrite = false
		return failingBatch{b}
	}
	return b
}

type failingBatch struct {
	kv.Batch
}

func (failingBatch) Write() error { return errors.New("leveldb: i/o error") }

func TestFailedCommitKeepsMemoryAlignedWithStore(t *testing.T) {
	flaky := &flakyStore{Store: kv.OpenMem()}
	a, err := New(flaky, &testChrono{height: 1, ts: days(1)}, &testTransferor{}, testSettings(), 0)
	require.NoError(t, err)
	require.NoError(t, a.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))

	flaky.failNextWrite = true
	require.Error(t, a.RegisterValidator("val-b", "app-b", big.NewInt(20_000), true))

	// the failed fact is visible neither in the ledger nor in the live set
	assert.EqualValues(t, anchor.IndexRange{StartIndex: 0, EndIndex: 0}, a.StakingHistoryIndexRange())
	live := a.LiveValidatorSet()
	require.Len(t, live.Validators, 1)
	assert.EqualValues(t, "val-a", live.Validators[0].ValidatorID)

	// retrying lands on the resynchronized state
	require.NoError(t, a.RegisterValidator("val-b", "app-b", big.NewInt(20_000), true))
	assert.EqualValues(t, anchor.IndexRange{StartIndex: 0, EndIndex: 1}, a.StakingHistoryIndexRange())
	assert.Zero(t, a.LiveValidatorSet().TotalStake.Cmp(big.NewInt(30_000)))

	// a restart from the same store agrees
	reopened, err := New(flaky, &testChrono{height: 2, ts: days(2)}, &testTransferor{}, testSettings(), 0)
	require.NoError(t, err)
	assert.Zero(t, reopened.LiveValidatorSet().TotalStake.Cmp(big.NewInt(30_000)))
}

func TestFailedCommitDoesNotConsumeNonce(t *testing.T) {
	flaky := &flakyStore{Store: kv.OpenMem()}
	transferor := &testTransferor{}
	a, err := New(flaky, &testChrono{height: 1, ts: days(1)}, transferor, testSettings(), 0)
	require.NoError(t, err)

	data, err := message.Encode([]message.Message{
		{Nonce: 1, Event: message.NativeLocked{OwnerIDInAppchain: "app-owner", ReceiverID: "alice", Amount: big.NewInt(5)}},
	})
	require.NoError(t, err)

	flaky.failNextWrite = true
	require.Error(t, a.HandleProofBatch(data))
	assert.Zero(t, transferor.totalOf("alice").Sign(), "no transfer before the books are committed")

	// the nonce was not consumed, the same batch applies cleanly now
	require.NoError(t, a.HandleProofBatch(data))
	assert.Zero(t, transferor.totalOf("alice").Cmp(big.NewInt(5)))
}

func TestRewardsOutsideRetentionWindowAreForfeited(t *testing.T) {
	settings := testSettings()
	settings.MaximumEraCountOfUnwithdrawnReward = 1
	f := newFixtureWithSettings(t, settings)
	f.completeCurrentEra(t, 0)

	require.NoError(t, f.anchor.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))

	f.deliver(t, message.EraPlanned{EraNumber: 1})
	f.advanceUntil(t, era.ReadyForDistributingReward)
	f.deliver(t, message.EraPayoutConcluded{EraNumber: 1, Payout: big.NewInt(1_000)})
	f.advanceUntil(t, era.Completed)

	f.deliver(t, message.EraPlanned{EraNumber: 2})
	f.advanceUntil(t, era.ReadyForDistributingReward)
	f.deliver(t, message.EraPayoutConcluded{EraNumber: 2, Payout: big.NewInt(500)})
	f.advanceUntil(t, era.Completed)

	// the window is one era wide: only era 2's reward is withdrawable, era
	// 1's is forfeited
	withdrawn, err := f.anchor.WithdrawValidatorRewards("val-a")
	require.NoError(t, err)
	assert.Zero(t, withdrawn.Cmp(big.NewInt(500)))
	assert.Zero(t, f.transferor.totalOf("val-a").Cmp(big.NewInt(500)))

	// the forfeited part stays unreachable on later withdrawals
	withdrawn, err = f.anchor.WithdrawValidatorRewards("val-a")
	require.NoError(t, err)
	assert.Zero(t, withdrawn.Sign())
}
