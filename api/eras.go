// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/core"
)

// Eras serves the sealed era history and the live validator set.
type Eras struct {
	anchor *core.AppchainAnchor
}

func NewEras(a *core.AppchainAnchor) *Eras {
	return &Eras{anchor: a}
}

func (e *Eras) handleGetIndexRange(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, e.anchor.EraIndexRange())
}

func (e *Eras) handleGetEra(w http.ResponseWriter, r *http.Request) error {
	number, err := eraNumber(r)
	if err != nil {
		return err
	}
	view, err := e.anchor.Era(number)
	if err != nil {
		return err
	}
	if view == nil {
		return notFound(errors.Errorf("no era %d", number))
	}
	return writeJSON(w, view)
}

func (e *Eras) handleGetStatus(w http.ResponseWriter, r *http.Request) error {
	number, err := eraNumber(r)
	if err != nil {
		return err
	}
	status, err := e.anchor.EraStatus(number)
	if err != nil {
		return err
	}
	if status == nil {
		return notFound(errors.Errorf("no era %d", number))
	}
	return writeJSON(w, status)
}

func (e *Eras) handleGetLiveSet(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, e.anchor.LiveValidatorSet())
}

func eraNumber(r *http.Request) (uint64, error) {
	number, err := strconv.ParseUint(mux.Vars(r)["number"], 10, 64)
	if err != nil {
		return 0, badRequest(errors.WithMessage(err, "number"))
	}
	return number, nil
}

// Mount attaches the group's endpoints under pathPrefix, plus the live
// validator-set view at /validator-set.
func (e *Eras) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/index-range").
		Methods(http.MethodGet).
		HandlerFunc(wrapHandlerFunc(e.handleGetIndexRange))
	sub.Path("/{number}").
		Methods(http.MethodGet).
		HandlerFunc(wrapHandlerFunc(e.handleGetEra))
	sub.Path("/{number}/status").
		Methods(http.MethodGet).
		HandlerFunc(wrapHandlerFunc(e.handleGetStatus))

	root.Path("/validator-set").
		Methods(http.MethodGet).
		HandlerFunc(wrapHandlerFunc(e.handleGetLiveSet))
}
