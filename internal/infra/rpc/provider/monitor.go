package provider

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// ProviderStatus represents the health state of a provider.
type ProviderStatus int

const (
	StatusHealthy   ProviderStatus = iota // Provider is working normally
	StatusDegraded                        // Provider is slow but working
	StatusThrottled                       // Provider is rate limiting
	StatusBlocked                         // Provider has blocked this client
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats struct {
	Status           ProviderStatus `json:"status"`
	AverageLatency   time.Duration  `json:"average_latency"`
	ThrottleCount429 int            `json:"throttle_count_429"`
	ThrottleCount403 int            `json:"throttle_count_403"`
	Requests         int            `json:"requests"`
}

// ProviderMonitor tracks throttling and latency for one provider.
type ProviderMonitor struct {
	mu sync.RWMutex

	latencies     []time.Duration
	latencyWindow int
	requests      int

	status429Count   int
	status403Count   int
	lastThrottleTime time.Time
	cooldown         time.Duration

	throttlePatterns      []string
	slowResponseThreshold time.Duration
	now                   func() time.Time
}

// NewProviderMonitor creates a new monitor with default settings.
func NewProviderMonitor() *ProviderMonitor {
	return &ProviderMonitor{
		latencies:     make([]time.Duration, 0, 50),
		latencyWindow: 50,
		throttlePatterns: []string{
			"rate limit exceeded",
			"too many requests",
			"request limit reached",
		},
		slowResponseThreshold: 3 * time.Second,
		now:                   time.Now,
	}
}

// RecordRequest records a successful request with its latency.
func (pm *ProviderMonitor) RecordRequest(latency time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requests++
	pm.latencies = append(pm.latencies, latency)
	if len(pm.latencies) > pm.latencyWindow {
		pm.latencies = pm.latencies[1:]
	}
}

// RecordThrottle records a rate limiting or blocking response.
func (pm *ProviderMonitor) RecordThrottle(statusCode int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.lastThrottleTime = pm.now()
	switch statusCode {
	case http.StatusForbidden:
		pm.status403Count++
		pm.cooldown = 10 * time.Minute
	default:
		pm.status429Count++
		pm.cooldown = time.Minute
	}
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (pm *ProviderMonitor) DetectThrottlePattern(message string) bool {
	lowerMsg := strings.ToLower(message)
	for _, pattern := range pm.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// Status returns the current status of the provider.
func (pm *ProviderMonitor) Status() ProviderStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.statusLocked()
}

func (pm *ProviderMonitor) statusLocked() ProviderStatus {
	cooling := pm.now().Sub(pm.lastThrottleTime) < pm.cooldown
	if pm.status403Count > 0 && cooling {
		return StatusBlocked
	}
	if pm.status429Count > 3 && cooling {
		return StatusThrottled
	}
	if len(pm.latencies) >= 10 && pm.averageLocked() > pm.slowResponseThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

func (pm *ProviderMonitor) averageLocked() time.Duration {
	if len(pm.latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range pm.latencies {
		total += l
	}
	return total / time.Duration(len(pm.latencies))
}

// RetryAfter returns remaining time before retry is allowed.
func (pm *ProviderMonitor) RetryAfter() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	remaining := pm.cooldown - pm.now().Sub(pm.lastThrottleTime)
	if remaining > 0 {
		return remaining
	}
	return 0
}

// GetStats returns current monitoring statistics.
func (pm *ProviderMonitor) GetStats() MonitorStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return MonitorStats{
		Status:           pm.statusLocked(),
		AverageLatency:   pm.averageLocked(),
		ThrottleCount429: pm.status429Count,
		ThrottleCount403: pm.status403Count,
		Requests:         pm.requests,
	}
}
