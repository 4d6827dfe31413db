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
	"fmt"
	"time"

	"github.com/tux3/aegis/internal/identity"
)

func (s *Store) InsertEvent(ctx context.Context, id int64, level identity.EventLevel, message string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO device_event (dev_id, created_at, level, message) VALUES ($1, $2, $3, $4)`,
		id, time.Now().UTC(), level, message)
	if err != nil {
		return fmt.Errorf("postgres: insert event: %w", err)
	}
	return nil
}

func (s *Store) EventsForDevice(ctx context.Context, id int64) ([]identity.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dev_id, created_at, level, message FROM device_event WHERE dev_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	var out []identity.Event
	for rows.Next() {
		var e identity.Event
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.CreatedAt, &e.Level, &e.Message); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEventsForDevice removes every event for id, failing if the device
// had none stored — mirroring the original handler's "no stored events"
// error rather than silently succeeding on an empty set.
func (s *Store) DeleteEventsForDevice(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM device_event WHERE dev_id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete events: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("device %d has no stored events: %w", id, identity.ErrNotFound)
	}
	return nil
}
