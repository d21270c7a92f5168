// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/core"
	"github.com/anchornet/anchor/staking"
)

// Staking serves the staking ledger.
type Staking struct {
	anchor *core.AppchainAnchor
}

func NewStaking(a *core.AppchainAnchor) *Staking {
	return &Staking{anchor: a}
}

type stakingHistoryJSON struct {
	Index                 uint64                   `json:"index"`
	Kind                  string                   `json:"kind"`
	ValidatorID           anchor.AccountID         `json:"validatorId"`
	ValidatorIDInAppchain anchor.AppchainAccountID `json:"validatorIdInAppchain,omitempty"`
	DelegatorID           anchor.AccountID         `json:"delegatorId,omitempty"`
	Amount                *big.Int                 `json:"amount"`
	CanBeDelegatedTo      bool                     `json:"canBeDelegatedTo"`
	RecordedAt            anchor.RecordedAt        `json:"recordedAt"`
}

func convertStakingHistory(h *staking.History) *stakingHistoryJSON {
	return &stakingHistoryJSON{
		Index:                 h.Index,
		Kind:                  h.Fact.Kind.String(),
		ValidatorID:           h.Fact.ValidatorID,
		ValidatorIDInAppchain: h.Fact.ValidatorIDInAppchain,
		DelegatorID:           h.Fact.DelegatorID,
		Amount:                h.Fact.Amount,
		CanBeDelegatedTo:      h.Fact.CanBeDelegatedTo,
		RecordedAt:            h.RecordedAt,
	}
}

func (s *Staking) handleGetIndexRange(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, s.anchor.StakingHistoryIndexRange())
}

func (s *Staking) handleGetHistory(w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		return badRequest(errors.WithMessage(err, "index"))
	}
	h, err := s.anchor.StakingHistory(index)
	if err != nil {
		return err
	}
	if h == nil {
		return notFound(errors.Errorf("no staking history at index %d", index))
	}
	return writeJSON(w, convertStakingHistory(h))
}

// Mount attaches the group's endpoints under pathPrefix.
func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/index-range").
		Methods(http.MethodGet).
		HandlerFunc(wrapHandlerFunc(s.handleGetIndexRange))
	sub.Path("/histories/{index}").
		Methods(http.MethodGet).
		HandlerFunc(wrapHandlerFunc(s.handleGetHistory))
}
