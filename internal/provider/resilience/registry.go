package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is the health of a single upstream provider, derived from
// its circuit breaker state.
type ProviderHealth struct {
	// Name is the provider identifier.
	Name string `json:"name"`

	// State is the current breaker state.
	State gobreaker.State `json:"-"`

	// Status is the state rendered for the ops surface.
	Status string `json:"status"`

	// LastSuccessAt is the time of the last successful call.
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`

	// LastFailureAt is the time of the last failed call.
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`

	// LastError is the most recent error message, if any.
	LastError string `json:"lastError,omitempty"`
}

// Healthy reports whether the provider breaker is closed.
func (h *ProviderHealth) Healthy() bool {
	return h.State == gobreaker.StateClosed
}

func statusLabel(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "ok"
	case gobreaker.StateHalfOpen:
		return "degraded"
	default:
		return "unavailable"
	}
}

// StateFunc reports the breaker state of a registered provider.
type StateFunc func() gobreaker.State

// Registry tracks provider breakers for the ops status endpoint.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*trackedProvider
}

type trackedProvider struct {
	state         StateFunc
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*trackedProvider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(name string, state StateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &trackedProvider{state: state}
}

// RegisterClient registers a resilient client under the given name.
func (r *Registry) RegisterClient(name string, client *Client) {
	r.Register(name, client.BreakerState)
}

// RecordSuccess records a successful provider call.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := time.Now()
		p.lastSuccessAt = &now
	}
}

// RecordFailure records a failed provider call.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := time.Now()
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	}
}

// Health returns the health of a single provider, or nil if unknown.
func (r *Registry) Health(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil
	}
	return r.health(name, p)
}

// AllHealth returns the health of every registered provider.
func (r *Registry) AllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		health = append(health, r.health(name, p))
	}
	return health
}

func (r *Registry) health(name string, p *trackedProvider) *ProviderHealth {
	state := p.state()
	return &ProviderHealth{
		Name:          name,
		State:         state,
		Status:        statusLabel(state),
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
	}
}
