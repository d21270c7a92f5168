// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/anchornet/anchor/core"
)

// New assembles the anchor's HTTP handler.
func New(anchor *core.AppchainAnchor, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	NewStaking(anchor).Mount(router, "/staking")
	NewEras(anchor).Mount(router, "/eras")
	NewMessages(anchor).Mount(router, "/messages")

	handler := handlers.CompressHandler(router)
	// without configured origins the API stays same-origin only
	if len(allowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(allowedOrigins),
			handlers.AllowedHeaders([]string{"content-type"}),
		)(handler)
	}
	return handler
}
