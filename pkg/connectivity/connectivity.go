package connectivity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether the backing store is currently reachable.
type Probe func(ctx context.Context) error

// MonitorConfig configures probing behaviour.
type MonitorConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Monitor watches store reachability and notifies subscribers on every
// offline-to-online transition. The initial state is offline until the first
// successful probe so that a restart with a populated outbox replays it.
type Monitor struct {
	probe    Probe
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	online      bool
	subscribers []func(context.Context)
	cancel      context.CancelFunc
	started     bool
	done        chan struct{}
}

// NewMonitor builds a monitor around the given probe.
func NewMonitor(probe Probe, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Monitor{
		probe:    probe,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// OnOnline registers a callback fired on each offline-to-online edge.
// Callbacks run on the monitor goroutine; long work should spawn its own.
func (m *Monitor) OnOnline(fn func(context.Context)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Start begins periodic probing. Safe to call once.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop(ctx)
}

// Stop halts probing and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.probe(probeCtx)
	cancel()

	m.Set(ctx, err == nil)
}

// Set records the observed state and fires subscribers when the state flips
// from offline to online. Exposed so tests and manual triggers can drive it.
func (m *Monitor) Set(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	subscribers := m.subscribers
	m.mu.Unlock()

	if online == wasOnline {
		return
	}
	if !online {
		m.logger.Warn("backing store unreachable")
		return
	}

	m.logger.Info("backing store reachable, notifying subscribers")
	for _, fn := range subscribers {
		fn(ctx)
	}
}
