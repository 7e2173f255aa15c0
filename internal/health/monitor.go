package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/modswap/internal/infra/chain"
	"github.com/vietddude/modswap/internal/infra/storage"
)

// CheckFunc reports whether a backend is reachable.
type CheckFunc func(ctx context.Context) error

// Config tunes the monitor.
type Config struct {
	ChainID uint64
	// StaleAfter is how long a submission may wait for a receipt before it
	// degrades the report.
	StaleAfter time.Duration
	// CacheFor limits how often the node and backends are actually checked.
	CacheFor time.Duration
}

// Monitor aggregates health status from the node, the submission journal
// and the registered backends.
type Monitor struct {
	cfg         Config
	node        chain.Adapter
	submissions storage.SubmissionRepository
	components  map[string]CheckFunc
	now         func() time.Time

	lastCheck  time.Time
	lastReport *HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. submissions may be nil.
func NewMonitor(cfg Config, node chain.Adapter, submissions storage.SubmissionRepository) *Monitor {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.CacheFor <= 0 {
		cfg.CacheFor = 10 * time.Second
	}
	return &Monitor{
		cfg:         cfg,
		node:        node,
		submissions: submissions,
		components:  make(map[string]CheckFunc),
		now:         time.Now,
	}
}

// Register adds a named backend check, e.g. "postgres" or "redis".
func (m *Monitor) Register(name string, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = check
}

// CheckHealth returns the current report, probing at most once per CacheFor.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.lastReport != nil && now.Sub(m.lastCheck) < m.cfg.CacheFor {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Node:         m.checkNode(ctx),
		Components:   make(map[string]ComponentHealth, len(m.components)),
	}
	report.SystemStatus = worse(report.SystemStatus, report.Node.Status)

	for name, check := range m.components {
		c := ComponentHealth{Status: StatusHealthy}
		if err := check(ctx); err != nil {
			c.Status = StatusDegraded
			c.Error = err.Error()
		}
		report.Components[name] = c
		report.SystemStatus = worse(report.SystemStatus, c.Status)
	}

	if m.submissions != nil {
		pending, err := m.submissions.ListPending(ctx, m.cfg.ChainID)
		if err != nil {
			report.Components["journal"] = ComponentHealth{Status: StatusDegraded, Error: err.Error()}
			report.SystemStatus = worse(report.SystemStatus, StatusDegraded)
		}
		report.PendingSubmissions = len(pending)
		for _, s := range pending {
			if now.Sub(s.CreatedAt) > m.cfg.StaleAfter {
				report.StaleSubmissions++
			}
		}
		if report.StaleSubmissions > 0 {
			report.SystemStatus = worse(report.SystemStatus, StatusDegraded)
		}
	}

	m.lastCheck = now
	m.lastReport = &report
	return report
}

// checkNode fails critical when the node is unreachable or serves another chain.
func (m *Monitor) checkNode(ctx context.Context) NodeHealth {
	h := NodeHealth{Status: StatusHealthy, ExpectedChainID: m.cfg.ChainID}

	id, err := m.node.ChainID(ctx)
	if err != nil {
		h.Status = StatusCritical
		h.Error = err.Error()
		return h
	}
	h.ChainID = id.Uint64()
	if m.cfg.ChainID != 0 && h.ChainID != m.cfg.ChainID {
		h.Status = StatusCritical
		h.Error = fmt.Sprintf("node serves chain %d, expected %d", h.ChainID, m.cfg.ChainID)
		return h
	}

	block, err := m.node.BlockNumber(ctx)
	if err != nil {
		h.Status = StatusDegraded
		h.Error = err.Error()
		return h
	}
	h.BlockNumber = block
	return h
}
