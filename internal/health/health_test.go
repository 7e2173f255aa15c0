package health

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain/chaintest"
	"github.com/vietddude/modswap/internal/infra/storage/memory"
)

// =============================================================================
// Stubs
// =============================================================================

type downNode struct {
	*chaintest.Chain
}

func (downNode) ChainID(context.Context) (*big.Int, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type countingNode struct {
	*chaintest.Chain
	calls int
}

func (c *countingNode) ChainID(ctx context.Context) (*big.Int, error) {
	c.calls++
	return c.Chain.ChainID(ctx)
}

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_Healthy(t *testing.T) {
	monitor := NewMonitor(Config{ChainID: 300}, chaintest.New(300), nil)

	report := monitor.CheckHealth(context.Background())

	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
	if report.Node.BlockNumber != 100 {
		t.Errorf("expected block 100, got %d", report.Node.BlockNumber)
	}
}

func TestMonitor_NodeDown(t *testing.T) {
	monitor := NewMonitor(Config{ChainID: 300}, downNode{chaintest.New(300)}, nil)

	report := monitor.CheckHealth(context.Background())

	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
	if report.Node.Error == "" {
		t.Error("expected node error")
	}
}

func TestMonitor_ChainMismatch(t *testing.T) {
	monitor := NewMonitor(Config{ChainID: 324}, chaintest.New(300), nil)

	report := monitor.CheckHealth(context.Background())

	if report.Node.Status != StatusCritical {
		t.Errorf("expected critical, got %s", report.Node.Status)
	}
	if report.Node.ChainID != 300 || report.Node.ExpectedChainID != 324 {
		t.Errorf("unexpected chain ids: %+v", report.Node)
	}
}

func TestMonitor_ComponentDown(t *testing.T) {
	monitor := NewMonitor(Config{ChainID: 300}, chaintest.New(300), nil)
	monitor.Register("redis", func(context.Context) error { return errors.New("timeout") })
	monitor.Register("postgres", func(context.Context) error { return nil })

	report := monitor.CheckHealth(context.Background())

	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
	if report.Components["redis"].Status != StatusDegraded {
		t.Errorf("expected redis degraded, got %s", report.Components["redis"].Status)
	}
	if report.Components["postgres"].Status != StatusHealthy {
		t.Errorf("expected postgres healthy, got %s", report.Components["postgres"].Status)
	}
}

func TestMonitor_StaleSubmissions(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	repo := memory.NewSubmissionRepo(memory.NewMemoryStorage())
	ctx := context.Background()

	subs := []*domain.Submission{
		{ID: "old", ChainID: 300, Status: domain.SubmissionPending, CreatedAt: now.Add(-10 * time.Minute)},
		{ID: "new", ChainID: 300, Status: domain.SubmissionPending, CreatedAt: now.Add(-time.Minute)},
		{ID: "done", ChainID: 300, Status: domain.SubmissionConfirmed, CreatedAt: now.Add(-time.Hour)},
	}
	for _, s := range subs {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	monitor := NewMonitor(Config{ChainID: 300, StaleAfter: 5 * time.Minute}, chaintest.New(300), repo)
	monitor.now = func() time.Time { return now }

	report := monitor.CheckHealth(ctx)

	if report.PendingSubmissions != 2 {
		t.Errorf("expected 2 pending, got %d", report.PendingSubmissions)
	}
	if report.StaleSubmissions != 1 {
		t.Errorf("expected 1 stale, got %d", report.StaleSubmissions)
	}
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
}

func TestMonitor_CachesReport(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	node := &countingNode{Chain: chaintest.New(300)}
	monitor := NewMonitor(Config{ChainID: 300}, node, nil)
	monitor.now = func() time.Time { return now }

	monitor.CheckHealth(context.Background())
	monitor.CheckHealth(context.Background())
	if node.calls != 1 {
		t.Errorf("expected 1 node call within cache window, got %d", node.calls)
	}

	now = now.Add(11 * time.Second)
	monitor.CheckHealth(context.Background())
	if node.calls != 2 {
		t.Errorf("expected 2 node calls after cache window, got %d", node.calls)
	}
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name   string
		node   *chaintest.Chain
		want   int
		status SystemStatus
	}{
		{"healthy", chaintest.New(300), http.StatusOK, StatusHealthy},
		{"wrong chain", chaintest.New(1), http.StatusServiceUnavailable, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(NewMonitor(Config{ChainID: 300}, tt.node, nil), 0)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != string(tt.status) {
				t.Errorf("expected %s, got %s", tt.status, body["status"])
			}
		})
	}
}

func TestServer_Detailed(t *testing.T) {
	srv := NewServer(NewMonitor(Config{ChainID: 300}, chaintest.New(300), nil), 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Node.ChainID != 300 {
		t.Errorf("expected chain 300, got %d", report.Node.ChainID)
	}
}
