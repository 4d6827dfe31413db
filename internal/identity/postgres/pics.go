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

func (s *Store) InsertPicture(ctx context.Context, id int64, jpeg []byte, createdAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO device_camera_picture (dev_id, created_at, jpeg_data) VALUES ($1, $2, $3)`,
		id, createdAt, jpeg)
	if err != nil {
		return fmt.Errorf("postgres: insert picture: %w", err)
	}
	return nil
}

func (s *Store) PicturesForDevice(ctx context.Context, id int64) ([]identity.Picture, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dev_id, created_at, jpeg_data FROM device_camera_picture WHERE dev_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pictures: %w", err)
	}
	defer rows.Close()

	var out []identity.Picture
	for rows.Next() {
		var p identity.Picture
		if err := rows.Scan(&p.ID, &p.DeviceID, &p.CreatedAt, &p.JPEG); err != nil {
			return nil, fmt.Errorf("postgres: scan picture: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePicturesForDevice mirrors DeleteEventsForDevice's "no stored …"
// error on an empty set.
func (s *Store) DeletePicturesForDevice(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM device_camera_picture WHERE dev_id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete pictures: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("device %d has no stored camera pictures: %w", id, identity.ErrNotFound)
	}
	return nil
}
