// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/gemfarm/builtin/reverts"
)

func serve(f HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	WrapHandlerFunc(f)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestWrapHandlerFunc(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, _ *http.Request) error {
		return WriteJSON(w, M{"ok": true})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = serve(func(http.ResponseWriter, *http.Request) error {
		return BadRequest(errors.New("bad"))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad\n", rec.Body.String())

	rec = serve(func(http.ResponseWriter, *http.Request) error {
		return HTTPError(nil, http.StatusTeapot)
	})
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = serve(func(http.ResponseWriter, *http.Request) error {
		return errors.New("boom")
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRevertError(t *testing.T) {
	tests := []struct {
		kind   reverts.Kind
		status int
	}{
		{reverts.AuthorizationFault, http.StatusForbidden},
		{reverts.NotFound, http.StatusNotFound},
		{reverts.CustodyFault, http.StatusConflict},
		{reverts.FarmInactive, http.StatusConflict},
		{reverts.FarmerNotStaked, http.StatusConflict},
		{reverts.InsufficientCustody, http.StatusBadRequest},
		{reverts.PrematureWithdrawal, http.StatusBadRequest},
		{reverts.InvalidRarityTable, http.StatusBadRequest},
		{reverts.Overflow, http.StatusBadRequest},
		{reverts.InvalidAmount, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := serve(func(http.ResponseWriter, *http.Request) error {
			return RevertError(reverts.New(tt.kind, "x"))
		})
		assert.Equal(t, tt.status, rec.Code, tt.kind.String())
	}

	plain := errors.New("plain")
	assert.Equal(t, plain, RevertError(plain))
}

func TestParseJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(strings.NewReader(`{"b":1}`), &v))
}
