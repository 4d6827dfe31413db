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
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tux3/aegis/internal/identity"
)

const uniqueViolation = "23505"

func encodePubKey(pk []byte) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(pk)
}

func (s *Store) ListPending(ctx context.Context) ([]identity.Device, error) {
	return s.listDevices(ctx, true)
}

func (s *Store) ListRegistered(ctx context.Context) ([]identity.Device, error) {
	return s.listDevices(ctx, false)
}

func (s *Store) listDevices(ctx context.Context, pending bool) ([]identity.Device, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, name, pubkey, pending FROM device WHERE pending = $1 ORDER BY id`, pending)
	if err != nil {
		return nil, fmt.Errorf("postgres: list devices: %w", err)
	}
	defer rows.Close()

	var out []identity.Device
	for rows.Next() {
		d, pk, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		d.PubKey = pk
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDevice(row pgx.Row) (identity.Device, []byte, error) {
	var d identity.Device
	var pkEnc string
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.Name, &pkEnc, &d.Pending); err != nil {
		return identity.Device{}, nil, fmt.Errorf("postgres: scan device: %w", err)
	}
	pk, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(pkEnc)
	if err != nil {
		return identity.Device{}, nil, fmt.Errorf("postgres: decode stored pubkey: %w", err)
	}
	return d, pk, nil
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM device WHERE pending = TRUE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count pending: %w", err)
	}
	return n, nil
}

func (s *Store) InsertPending(ctx context.Context, createdAt time.Time, name string, pubKey []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO device (created_at, name, pubkey, pending) VALUES ($1, $2, $3, TRUE)`,
		createdAt, name, encodePubKey(pubKey))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.ErrConflict
		}
		return fmt.Errorf("postgres: insert pending: %w", err)
	}
	return nil
}

func (s *Store) ConfirmPending(ctx context.Context, name string) (identity.Device, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return identity.Device{}, fmt.Errorf("postgres: begin confirm_pending: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`UPDATE device SET pending = FALSE WHERE name = $1 AND pending = TRUE RETURNING id`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Device{}, identity.ErrNotFound
		}
		return identity.Device{}, fmt.Errorf("postgres: confirm_pending update: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`INSERT INTO device_status (dev_id, updated_at) VALUES ($1, $2)`, id, now); err != nil {
		return identity.Device{}, fmt.Errorf("postgres: confirm_pending status insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return identity.Device{}, fmt.Errorf("postgres: commit confirm_pending: %w", err)
	}

	return s.GetDevice(ctx, id)
}

func (s *Store) DeletePending(ctx context.Context, name string) error {
	return s.deleteDevice(ctx, name, true)
}

func (s *Store) DeleteRegistered(ctx context.Context, name string) error {
	return s.deleteDevice(ctx, name, false)
}

func (s *Store) deleteDevice(ctx context.Context, name string, pending bool) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM device WHERE name = $1 AND pending = $2`, name, pending)
	if err != nil {
		return fmt.Errorf("postgres: delete device: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *Store) GetIDByPubKey(ctx context.Context, pubKey []byte) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM device WHERE pubkey = $1 AND pending = FALSE`, encodePubKey(pubKey)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, identity.ErrNotFound
		}
		return 0, fmt.Errorf("postgres: get id by pubkey: %w", err)
	}
	return id, nil
}

func (s *Store) GetIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM device WHERE name = $1 AND pending = FALSE`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, identity.ErrNotFound
		}
		return 0, fmt.Errorf("postgres: get id by name: %w", err)
	}
	return id, nil
}

func (s *Store) GetDevice(ctx context.Context, id int64) (identity.Device, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, created_at, name, pubkey, pending FROM device WHERE id = $1`, id)
	d, pk, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Device{}, identity.ErrNotFound
		}
		return identity.Device{}, err
	}
	d.PubKey = pk
	return d, nil
}
