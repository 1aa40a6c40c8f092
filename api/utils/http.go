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
)

// JSONContentType is the content type of every JSON response.
const JSONContentType = "application/json; charset=utf-8"

// statusError attaches a response status to an error.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

// HTTPError makes err respond with status. A nil err responds with an empty body.
func HTTPError(err error, status int) error {
	return &statusError{err: err, status: status}
}

func BadRequest(err error) error { return HTTPError(err, http.StatusBadRequest) }
func Forbidden(err error) error  { return HTTPError(err, http.StatusForbidden) }
func NotFound(err error) error   { return HTTPError(err, http.StatusNotFound) }
func Conflict(err error) error   { return HTTPError(err, http.StatusConflict) }

// StatusOf returns the status carried by err, or 500 when there is none.
func StatusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return http.StatusInternalServerError
}

// HandlerFunc is an http.HandlerFunc that may fail.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc adapts f to http.HandlerFunc, rendering a returned error as
// {"error": message} with the status from StatusOf.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		status := StatusOf(err)
		var se *statusError
		if errors.As(err, &se) && se.err == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_ = WriteJSONStatus(w, status, M{"error": err.Error()})
	}
}

// ParseJSON decodes a request body, rejecting unknown fields.
func ParseJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// WriteJSON writes obj with status 200.
func WriteJSON(w http.ResponseWriter, obj any) error {
	return WriteJSONStatus(w, http.StatusOK, obj)
}

// WriteJSONStatus writes obj with the given status.
func WriteJSONStatus(w http.ResponseWriter, status int, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(obj)
}

// M is a JSON object literal.
type M map[string]any
