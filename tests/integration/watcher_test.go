package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/file"
	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/memcache"
)

func TestWatcherPicksUpOutOfBandWrites(t *testing.T) {
	s := newStack(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	watcher, err := memcache.NewWatcher(s.cache, s.root, 50*time.Millisecond, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })
	watcher.Start(ctx)

	// A second process writing to the same directory, bypassing the
	// publication service entirely.
	other, err := file.NewStore(s.root)
	require.NoError(t, err)
	defer other.Close()

	entity := district("kaski", "Kaski", "कास्की")
	require.NoError(t, other.PutEntity(ctx, entity))

	require.Eventually(t, func() bool {
		got, err := s.search.GetEntity(ctx, entity.ID())
		return err == nil && got != nil
	}, 5*time.Second, 20*time.Millisecond, "cache never saw the out-of-band write")

	// Deletion out of band is noticed too.
	_, err = other.DeleteEntity(ctx, entity.ID())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := s.search.GetEntity(ctx, entity.ID())
		return err != nil
	}, 5*time.Second, 20*time.Millisecond, "cache never saw the out-of-band delete")
}
