package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Refresh outcome labels stored per destination.
const (
	RefreshStatusOK     = "OK"
	RefreshStatusFailed = "FAILED"
	RefreshStatusNever  = "NEVER_RUN"
)

// RefreshState records the outcome of the last warm run for a destination.
// States live in Redis so they survive worker restarts and are visible to
// every worker replica.
type RefreshState struct {
	Status        string    `json:"status"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	AlertCount    int       `json:"alert_count"`
}

// stateTTL expires stale destination states automatically.
const stateTTL = 7 * 24 * time.Hour

// StateManager manages refresh states in Redis.
type StateManager struct {
	redis *redis.Client
}

// NewStateManager creates a new state manager.
func NewStateManager(redisClient *redis.Client) *StateManager {
	return &StateManager{redis: redisClient}
}

func stateKey(destination string) string {
	return fmt.Sprintf("refresh_state:%s", destination)
}

// GetState retrieves the refresh state for a destination.
func (sm *StateManager) GetState(ctx context.Context, destination string) (*RefreshState, error) {
	data, err := sm.redis.Get(ctx, stateKey(destination)).Result()
	if errors.Is(err, redis.Nil) {
		return &RefreshState{Status: RefreshStatusNever}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting state from redis: %w", err)
	}

	var state RefreshState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	return &state, nil
}

// SetState saves the refresh state for a destination.
func (sm *StateManager) SetState(ctx context.Context, destination string, state *RefreshState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := sm.redis.Set(ctx, stateKey(destination), data, stateTTL).Err(); err != nil {
		return fmt.Errorf("setting state in redis: %w", err)
	}
	return nil
}

// AllStates returns every stored destination state, keyed by Redis key.
func (sm *StateManager) AllStates(ctx context.Context) (map[string]*RefreshState, error) {
	keys, err := sm.redis.Keys(ctx, "refresh_state:*").Result()
	if err != nil {
		return nil, err
	}

	states := make(map[string]*RefreshState)
	for _, key := range keys {
		data, err := sm.redis.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		var state RefreshState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			continue
		}
		states[key] = &state
	}
	return states, nil
}
