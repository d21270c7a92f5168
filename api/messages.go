// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/anchornet/anchor/core"
)

const maxProofBatchSize = 1 << 20

// Messages takes relayed proof batches.
type Messages struct {
	anchor *core.AppchainAnchor
}

func NewMessages(a *core.AppchainAnchor) *Messages {
	return &Messages{anchor: a}
}

func (m *Messages) handlePostBatch(w http.ResponseWriter, r *http.Request) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProofBatchSize))
	if err != nil {
		return badRequest(errors.WithMessage(err, "read body"))
	}
	if err := m.anchor.HandleProofBatch(data); err != nil {
		return badRequest(err)
	}
	return writeJSON(w, map[string]bool{"accepted": true})
}

// Mount attaches the group's endpoints under pathPrefix.
func (m *Messages) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodPost).
		HandlerFunc(wrapHandlerFunc(m.handlePostBatch))
}
