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

// Package postgres implements identity.Store atop jackc/pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config names the connection parameters for the identity database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// Store is the pgx-backed identity.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New opens a connection pool and verifies it with a ping.
func New(ctx context.Context, cfg Config) (*Store, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Schema is the DDL aegisd applies on startup for a fresh database. The
// server (§6.3) treats the relational schema as an implementation detail;
// this is that detail, kept minimal and migration-free to match the
// "opaque repository" framing.
const Schema = `
CREATE TABLE IF NOT EXISTS device (
	id         BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	name       TEXT NOT NULL UNIQUE,
	pubkey     TEXT NOT NULL UNIQUE,
	pending    BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS device_status (
	dev_id      BIGINT PRIMARY KEY REFERENCES device(id) ON DELETE CASCADE,
	updated_at  TIMESTAMPTZ NOT NULL,
	vt_locked   BOOLEAN NOT NULL DEFAULT FALSE,
	ssh_locked  BOOLEAN NOT NULL DEFAULT FALSE,
	draw_decoy  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS device_event (
	id         BIGSERIAL PRIMARY KEY,
	dev_id     BIGINT NOT NULL REFERENCES device(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	level      SMALLINT NOT NULL,
	message    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS device_camera_picture (
	id         BIGSERIAL PRIMARY KEY,
	dev_id     BIGINT NOT NULL REFERENCES device(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	jpeg_data  BYTEA NOT NULL
);
`

// Migrate applies Schema. Safe to call repeatedly; every statement is
// idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
