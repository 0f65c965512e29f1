package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is any dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the outcome of one round of checks.
type Status struct {
	Healthy   bool            `json:"healthy"`
	Services  map[string]bool `json:"services"`
	LastCheck time.Time       `json:"last_check"`
}

type probe struct {
	name   string
	pinger Pinger
}

// Monitor pings registered dependencies on demand.
type Monitor struct {
	probes  []probe
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a monitor whose probes each get at most timeout.
func New(timeout time.Duration, logger *zap.Logger) *Monitor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{timeout: timeout, logger: logger}
}

// Register adds a named dependency to check. Nil pingers are ignored.
func (m *Monitor) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	m.probes = append(m.probes, probe{name: name, pinger: p})
}

// Check pings every dependency concurrently, each bounded by the monitor timeout.
func (m *Monitor) Check(ctx context.Context) Status {
	status := Status{
		Healthy:   true,
		Services:  make(map[string]bool, len(m.probes)),
		LastCheck: time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range m.probes {
		wg.Add(1)
		go func(p probe) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			err := p.pinger.Ping(pingCtx)
			if err != nil {
				m.logger.Warn("dependency check failed", zap.String("dependency", p.name), zap.Error(err))
			}

			mu.Lock()
			status.Services[p.name] = err == nil
			if err != nil {
				status.Healthy = false
			}
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	return status
}
