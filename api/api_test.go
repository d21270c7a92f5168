// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/core"
	"github.com/anchornet/anchor/kv"
	"github.com/anchornet/anchor/message"
)

type testChrono struct{}

func (testChrono) BlockHeight() uint64 { return 42 }
func (testChrono) Timestamp() uint64   { return 42_000_000_000 }

type testTransferor struct{}

func (testTransferor) Transfer(anchor.AccountID, *big.Int) error { return nil }

func newServer(t *testing.T) (*httptest.Server, *core.AppchainAnchor) {
	t.Helper()
	settings := anchor.DefaultProtocolSettings()
	settings.MinimumValidatorDeposit = big.NewInt(10_000)
	settings.MinimumDelegatorDeposit = big.NewInt(1_000)

	a, err := core.New(kv.OpenMem(), testChrono{}, testTransferor{}, settings, 0)
	require.NoError(t, err)
	ts := httptest.NewServer(New(a, []string{"*"}))
	t.Cleanup(ts.Close)
	return ts, a
}

func httpGet(t *testing.T, url string, obj any) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if obj != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, obj))
	}
	return res.StatusCode
}

func TestStakingEndpoints(t *testing.T) {
	ts, a := newServer(t)
	require.NoError(t, a.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))
	require.NoError(t, a.RegisterDelegator("del-d", "val-a", big.NewInt(1_000)))

	var r anchor.IndexRange
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/staking/index-range", &r))
	assert.Equal(t, anchor.IndexRange{StartIndex: 0, EndIndex: 1}, r)

	var h struct {
		Index       uint64           `json:"index"`
		Kind        string           `json:"kind"`
		ValidatorID anchor.AccountID `json:"validatorId"`
		Amount      *big.Int         `json:"amount"`
	}
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/staking/histories/0", &h))
	assert.Equal(t, "ValidatorRegistered", h.Kind)
	assert.EqualValues(t, "val-a", h.ValidatorID)
	assert.Zero(t, h.Amount.Cmp(big.NewInt(10_000)))

	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/staking/histories/99", nil))
	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/staking/histories/abc", nil))
}

func TestEraEndpoints(t *testing.T) {
	ts, _ := newServer(t)

	var r anchor.IndexRange
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/eras/index-range", &r))
	assert.Equal(t, anchor.IndexRange{StartIndex: 0, EndIndex: 0}, r)

	var view core.EraView
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/eras/0", &view))
	assert.EqualValues(t, 0, view.Number)
	assert.EqualValues(t, 42, view.StartBlockHeight)

	var status core.StatusView
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/eras/0/status", &status))
	assert.Equal(t, "CopyingFromLastEra", status.Phase)

	assert.Equal(t, http.StatusNotFound, httpGet(t, ts.URL+"/eras/5", nil))
}

func TestLiveValidatorSetEndpoint(t *testing.T) {
	ts, a := newServer(t)
	require.NoError(t, a.RegisterValidator("val-a", "app-a", big.NewInt(10_000), true))

	var view core.SetView
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/validator-set", &view))
	require.Len(t, view.Validators, 1)
	assert.EqualValues(t, "val-a", view.Validators[0].ValidatorID)
	assert.Zero(t, view.TotalStake.Cmp(big.NewInt(10_000)))
}

func TestCORSRequiresConfiguredOrigins(t *testing.T) {
	a, err := core.New(kv.OpenMem(), testChrono{}, testTransferor{}, anchor.DefaultProtocolSettings(), 0)
	require.NoError(t, err)

	closed := httptest.NewServer(New(a, nil))
	defer closed.Close()
	req, err := http.NewRequest(http.MethodGet, closed.URL+"/eras/index-range", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://cross.example")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))

	open := httptest.NewServer(New(a, []string{"*"}))
	defer open.Close()
	req, err = http.NewRequest(http.MethodGet, open.URL+"/eras/index-range", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://cross.example")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestPostProofBatch(t *testing.T) {
	ts, _ := newServer(t)

	data, err := message.Encode([]message.Message{
		{Nonce: 1, Event: message.NativeLocked{OwnerIDInAppchain: "app-x", ReceiverID: "alice", Amount: big.NewInt(7)}},
	})
	require.NoError(t, err)

	res, err := http.Post(ts.URL+"/messages", "application/octet-stream", bytes.NewReader(data))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Post(ts.URL+"/messages", "application/octet-stream", bytes.NewReader([]byte{0xff, 0x01}))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
