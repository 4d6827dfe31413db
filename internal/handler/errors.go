// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/tux3/aegis/internal/identity"
)

// StatusError carries the HTTP status a handler wants the gate to report,
// distinct from the 500 default for unannotated errors.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string { return e.Msg }

func badRequest(msg string) error { return &StatusError{Code: http.StatusBadRequest, Msg: msg} }

// HTTPStatus maps a handler error to the status code the gate should
// report, defaulting to 500 for anything not explicitly classified.
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, identity.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, identity.ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
