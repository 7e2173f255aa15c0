// Package health provides node and dependency health reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// NodeHealth describes the zkSync node the pipeline submits to.
type NodeHealth struct {
	Status          SystemStatus `json:"status"`
	ChainID         uint64       `json:"chain_id"`
	ExpectedChainID uint64       `json:"expected_chain_id"`
	BlockNumber     uint64       `json:"block_number"`
	Error           string       `json:"error,omitempty"`
}

// ComponentHealth describes a storage or lock backend.
type ComponentHealth struct {
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus       SystemStatus               `json:"system_status"`
	Node               NodeHealth                 `json:"node"`
	Components         map[string]ComponentHealth `json:"components"`
	PendingSubmissions int                        `json:"pending_submissions"`
	StaleSubmissions   int                        `json:"stale_submissions"`
}

// worse returns the more severe of two statuses.
func worse(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
