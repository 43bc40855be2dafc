package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/navayuwa/nes-core/internal/api"
	"github.com/navayuwa/nes-core/internal/domain/services"
	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/memcache"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the read API over HTTP.

Records are loaded into an in-memory cache at startup. When store.watch
is enabled in the config, the cache follows writes made by other
processes.

Examples:
  nes serve
  nes serve --addr :8090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		cache := memcache.NewCache(d.Store, d.Log)
		if err := cache.Warm(ctx); err != nil {
			return fmt.Errorf("warming cache: %w", err)
		}

		if d.Config.Store.Watch {
			debounce := time.Duration(d.Config.Store.WatchDebounceMS) * time.Millisecond
			watcher, err := memcache.NewWatcher(cache, d.Store.Root(), debounce, d.Log)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Close()
			watcher.Start(ctx)
		}

		if addr == "" {
			addr = d.Config.Server.Addr
		}

		search := services.NewSearchService(cache)
		server := api.NewServer(addr, search, d.Log, prometheus.NewRegistry())
		return server.ListenAndServe(ctx)
	})
}
