// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"bad request", BadRequest(errors.New("bad")), http.StatusBadRequest, `{"error":"bad"}`},
		{"conflict", Conflict(errors.New("busy")), http.StatusConflict, `{"error":"busy"}`},
		{"internal", errors.New("boom"), http.StatusInternalServerError, `{"error":"boom"}`},
		{"status only", HTTPError(nil, http.StatusNoContent), http.StatusNoContent, ""},
		{"wrapped", fmt.Errorf("load: %w", NotFound(errors.New("missing"))), http.StatusNotFound, `{"error":"load: missing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		Amount string `json:"amount"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"amount":"1"}`), &v))
	assert.Equal(t, "1", v.Amount)
	assert.Error(t, ParseJSON(strings.NewReader(`{"amount":"1","extra":true}`), &v))
}

func TestStatusOf(t *testing.T) {
	cause := errors.New("cause")
	assert.ErrorIs(t, Forbidden(cause), cause)
	assert.Equal(t, http.StatusForbidden, StatusOf(Forbidden(cause)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(cause))
	assert.Equal(t, "No Content", HTTPError(nil, http.StatusNoContent).Error())
}
