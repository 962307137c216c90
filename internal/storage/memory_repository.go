package storage

import (
	"context"
	"sync"

	"github.com/guardnomad/guardnomad/internal/alert"
)

// MemoryAlertRepository is an in-memory alert repository for tests and
// local development without a database.
type MemoryAlertRepository struct {
	mu       sync.RWMutex
	byDest   map[string][]alert.SafetyAlert
	saveErr  error
	SaveCall int
}

// NewMemoryAlertRepository creates a new in-memory alert repository.
func NewMemoryAlertRepository() *MemoryAlertRepository {
	return &MemoryAlertRepository{byDest: make(map[string][]alert.SafetyAlert)}
}

// FailWith makes subsequent saves return err.
func (r *MemoryAlertRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// SaveAlerts stores the alerts for a destination.
func (r *MemoryAlertRepository) SaveAlerts(_ context.Context, destination string, alerts []alert.SafetyAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.SaveCall++
	if r.saveErr != nil {
		return r.saveErr
	}

	stored := make([]alert.SafetyAlert, len(alerts))
	copy(stored, alerts)
	r.byDest[destination] = stored
	return nil
}

// RecentAlerts returns stored alerts for a destination.
func (r *MemoryAlertRepository) RecentAlerts(_ context.Context, destination string, limit int) ([]alert.SafetyAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := r.byDest[destination]
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	out := make([]alert.SafetyAlert, len(alerts))
	copy(out, alerts)
	return out, nil
}
