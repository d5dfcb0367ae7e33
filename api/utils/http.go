// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/log"
)

var logger = log.WithContext("pkg", "api")

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// HTTPError attaches a response status to cause.
func HTTPError(cause error, status int) error {
	return &httpError{cause: cause, status: status}
}

func BadRequest(cause error) error { return HTTPError(cause, http.StatusBadRequest) }
func Forbidden(cause error) error  { return HTTPError(cause, http.StatusForbidden) }
func NotFound(cause error) error   { return HTTPError(cause, http.StatusNotFound) }
func Conflict(cause error) error   { return HTTPError(cause, http.StatusConflict) }

// RevertError maps a reverted ledger operation to the matching http status.
// Errors that are not reverts are returned unchanged.
func RevertError(err error) error {
	if !reverts.IsRevertErr(err) {
		return err
	}
	switch reverts.KindOf(err) {
	case reverts.AuthorizationFault:
		return Forbidden(err)
	case reverts.NotFound:
		return NotFound(err)
	case reverts.CustodyFault, reverts.FarmInactive, reverts.FarmerNotStaked:
		return Conflict(err)
	default:
		return BadRequest(err)
	}
}

// HandlerFunc is an http.HandlerFunc returning an error. An error carrying a status
// from HTTPError is answered with that status, any other with 500.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		switch {
		case !errors.As(err, &he):
			logger.Debug("internal error", "uri", r.URL.RequestURI(), "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		case he.cause == nil:
			w.WriteHeader(he.status)
		default:
			http.Error(w, he.cause.Error(), he.status)
		}
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any
