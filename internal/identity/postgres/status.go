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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tux3/aegis/internal/identity"
)

// UpdateStatus dynamically builds the SET clause from the non-nil patch
// fields, and only bumps updated_at when at least one field is present —
// mirroring the original update_status, which appends updated_at to the
// clause list only when it isn't the sole entry.
func (s *Store) UpdateStatus(ctx context.Context, id int64, patch identity.StatusPatch) (identity.Status, error) {
	if !patch.AnySet() {
		return s.GetStatus(ctx, id)
	}

	var sets []string
	args := []interface{}{id}
	add := func(col string, v bool) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.VTLocked != nil {
		add("vt_locked", *patch.VTLocked)
	}
	if patch.SSHLocked != nil {
		add("ssh_locked", *patch.SSHLocked)
	}
	if patch.DrawDecoy != nil {
		add("draw_decoy", *patch.DrawDecoy)
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	query := fmt.Sprintf(`UPDATE device_status SET %s WHERE dev_id = $1`, strings.Join(sets, ", "))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return identity.Status{}, fmt.Errorf("postgres: update status: %w", err)
	}
	return s.GetStatus(ctx, id)
}

func (s *Store) GetStatus(ctx context.Context, id int64) (identity.Status, error) {
	var st identity.Status
	st.DeviceID = id
	err := s.pool.QueryRow(ctx,
		`SELECT updated_at, vt_locked, ssh_locked, draw_decoy FROM device_status WHERE dev_id = $1`, id).
		Scan(&st.UpdatedAt, &st.VTLocked, &st.SSHLocked, &st.DrawDecoy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Status{}, identity.ErrNotFound
		}
		return identity.Status{}, fmt.Errorf("postgres: get status: %w", err)
	}
	return st, nil
}
