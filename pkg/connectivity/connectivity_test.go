package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitorStartsOffline(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error { return nil }, MonitorConfig{})
	require.False(t, m.Online())
}

func TestMonitorFiresOnOnlineEdgeOnce(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error { return nil }, MonitorConfig{})
	ctx := context.Background()

	var fired int32
	m.OnOnline(func(ctx context.Context) {
		atomic.AddInt32(&fired, 1)
	})

	m.Set(ctx, true)
	m.Set(ctx, true)
	require.EqualValues(t, 1, atomic.LoadInt32(&fired))
	require.True(t, m.Online())

	m.Set(ctx, false)
	require.False(t, m.Online())

	m.Set(ctx, true)
	require.EqualValues(t, 2, atomic.LoadInt32(&fired))
}

func TestMonitorProbeDrivesEdges(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	probe := func(ctx context.Context) error {
		if failing.Load() {
			return errors.New("store unreachable")
		}
		return nil
	}

	var fired int32
	m := NewMonitor(probe, MonitorConfig{Interval: 5 * time.Millisecond, Timeout: time.Second})
	m.OnOnline(func(ctx context.Context) {
		atomic.AddInt32(&fired, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	time.Sleep(30 * time.Millisecond)
	require.False(t, m.Online())
	require.EqualValues(t, 0, atomic.LoadInt32(&fired))

	failing.Store(false)
	require.Eventually(t, func() bool {
		return m.Online() && atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
}
