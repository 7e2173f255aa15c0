// Package routing handles provider selection and failover logic.
//
// This package contains:
//   - Router: interface for provider selection and health tracking
//   - DefaultRouter: round-robin selection with a per-provider circuit breaker
//   - Retry: retry logic with exponential backoff and failover
package routing

import (
	"errors"
	"sync"
	"time"

	"github.com/vietddude/modswap/internal/infra/rpc/provider"
)

// ErrNoProviders is returned when no provider is registered or all are unusable.
var ErrNoProviders = errors.New("no available providers")

// Router handles provider selection and health tracking.
type Router interface {
	// AddProvider registers a provider
	AddProvider(p provider.Provider)

	// GetProvider returns the next usable provider
	GetProvider() (provider.Provider, error)

	// GetAllProviders returns usable providers, preferred first
	GetAllProviders() []provider.Provider

	// RecordSuccess tracks successful calls
	RecordSuccess(providerName string, latency time.Duration)

	// RecordFailure tracks failed calls
	RecordFailure(providerName string, err error)
}

type providerMetrics struct {
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	consecutiveFails int
	openedAt         time.Time
}

// DefaultRouter implements round-robin selection with circuit breaker.
type DefaultRouter struct {
	mu             sync.Mutex
	providers      []provider.Provider
	providerHealth map[string]*providerMetrics
	next           int

	failureThreshold int
	openFor          time.Duration
	now              func() time.Time
}

// NewRouter creates a new router. A provider's circuit opens after five
// consecutive failures and half-opens again after thirty seconds.
func NewRouter() *DefaultRouter {
	return &DefaultRouter{
		providerHealth:   make(map[string]*providerMetrics),
		failureThreshold: 5,
		openFor:          30 * time.Second,
		now:              time.Now,
	}
}

// AddProvider registers a provider.
func (r *DefaultRouter) AddProvider(p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = append(r.providers, p)
	r.providerHealth[p.GetName()] = &providerMetrics{}
}

// GetProvider returns the next usable provider in round-robin order.
func (r *DefaultRouter) GetProvider() (provider.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.providers)
	for i := 0; i < n; i++ {
		p := r.providers[(r.next+i)%n]
		if r.usableLocked(p) {
			r.next = (r.next + i + 1) % n
			return p, nil
		}
	}
	return nil, ErrNoProviders
}

// GetAllProviders returns usable providers starting at the round-robin cursor.
func (r *DefaultRouter) GetAllProviders() []provider.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.providers)
	result := make([]provider.Provider, 0, n)
	for i := 0; i < n; i++ {
		p := r.providers[(r.next+i)%n]
		if r.usableLocked(p) {
			result = append(result, p)
		}
	}
	return result
}

// Providers returns every registered provider regardless of health.
func (r *DefaultRouter) Providers() []provider.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]provider.Provider, len(r.providers))
	copy(result, r.providers)
	return result
}

func (r *DefaultRouter) usableLocked(p provider.Provider) bool {
	if !p.IsAvailable() {
		return false
	}
	m := r.providerHealth[p.GetName()]
	if m == nil || m.openedAt.IsZero() {
		return true
	}
	return r.now().Sub(m.openedAt) >= r.openFor
}

// RecordSuccess records a successful call and closes the circuit.
func (r *DefaultRouter) RecordSuccess(providerName string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.providerHealth[providerName]
	if !ok {
		return
	}
	m.successCount++
	m.totalLatency += latency
	m.consecutiveFails = 0
	m.openedAt = time.Time{}
}

// RecordFailure records a failed call.
func (r *DefaultRouter) RecordFailure(providerName string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.providerHealth[providerName]
	if !ok {
		return
	}
	m.failureCount++
	m.consecutiveFails++
	if m.consecutiveFails >= r.failureThreshold {
		m.openedAt = r.now()
	}
}

// CircuitOpen reports whether calls to the provider are currently short-circuited.
func (r *DefaultRouter) CircuitOpen(providerName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.providerHealth[providerName]
	if !ok || m.openedAt.IsZero() {
		return false
	}
	return r.now().Sub(m.openedAt) < r.openFor
}
