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

// Command aegisd is the Aegis server: it owns the identity store, the
// admission gate, the admin and device command planes, and the duplex
// websocket channel devices hold open.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tux3/aegis/config"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/httpapi"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/identity/memory"
	"github.com/tux3/aegis/internal/identity/postgres"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/metrics"
)

func main() {
	configPath := flag.String("config", "/etc/aegis/server.yaml", "path to server configuration")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aegisd: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefaultLogger()
	log.SetLevel(parseLevel(cfg.LogLevel))

	if cfg.RootPublicSignatureKey == "" {
		log.Fatal("aegisd: root_public_signature_key is not configured")
	}
	rootKey, err := keys.DecodePublic(cfg.RootPublicSignatureKey)
	if err != nil {
		log.Fatal("aegisd: invalid root_public_signature_key", logger.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("aegisd: failed to open identity store", logger.Error(err))
	}
	defer store.Close()

	srv, _ := httpapi.NewServer(store, rootKey, log)

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info("Starting metrics server", logger.String("addr", cfg.MetricsAddr))
			if err := metrics.StartServer(cfg.MetricsAddr); err != nil {
				log.Error("Metrics server stopped", logger.Error(err))
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
		// No overall read/write timeout: the duplex websocket route holds
		// its connection open for the device's whole session.
	}

	go func() {
		log.Info("aegisd listening", logger.Int("port", int(cfg.Port)))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("aegisd: server error", logger.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("aegisd shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("aegisd: graceful shutdown failed", logger.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.ServerConfig) (identity.Store, error) {
	if cfg.DBHost == "" {
		return memory.New(), nil
	}
	pg, err := postgres.New(ctx, postgres.Config{
		Host:     cfg.DBHost,
		Port:     int(cfg.DBPort),
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		MaxConns: int32(cfg.DBMaxConn),
	})
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
