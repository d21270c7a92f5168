// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the anchor's query surface and the proof-batch intake
// over HTTP.
package api

import (
	"encoding/json"
	"net/http"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError wraps an error with the response status it should produce.
func HTTPError(cause error, status int) error {
	return &httpError{cause: cause, status: status}
}

func badRequest(cause error) error { return HTTPError(cause, http.StatusBadRequest) }
func notFound(cause error) error   { return HTTPError(cause, http.StatusNotFound) }

// handlerFunc is an http handler returning an error. Business handlers stay
// free of status-code plumbing; wrapHandlerFunc translates.
type handlerFunc func(http.ResponseWriter, *http.Request) error

func wrapHandlerFunc(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		if he, ok := err.(*httpError); ok {
			http.Error(w, he.cause.Error(), he.status)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(obj)
}
