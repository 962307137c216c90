package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/provider/resilience"
)

func TestRegistry_Health(t *testing.T) {
	registry := resilience.NewRegistry()
	state := gobreaker.StateClosed
	registry.Register("exa", func() gobreaker.State { return state })

	health := registry.Health("exa")
	require.NotNil(t, health)
	assert.Equal(t, "exa", health.Name)
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Healthy())

	state = gobreaker.StateHalfOpen
	assert.Equal(t, "degraded", registry.Health("exa").Status)

	state = gobreaker.StateOpen
	health = registry.Health("exa")
	assert.Equal(t, "unavailable", health.Status)
	assert.False(t, health.Healthy())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Nil(t, registry.Health("missing"))
}

func TestRegistry_RecordsOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("weatherapi", func() gobreaker.State { return gobreaker.StateClosed })

	registry.RecordSuccess("weatherapi")
	registry.RecordFailure("weatherapi", errors.New("timeout"))

	health := registry.Health("weatherapi")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "timeout", health.LastError)
}

func TestRegistry_AllHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("exa", func() gobreaker.State { return gobreaker.StateClosed })
	registry.Register("weatherapi", func() gobreaker.State { return gobreaker.StateOpen })

	all := registry.AllHealth()
	require.Len(t, all, 2)

	byName := make(map[string]string, len(all))
	for _, h := range all {
		byName[h.Name] = h.Status
	}
	assert.Equal(t, "ok", byName["exa"])
	assert.Equal(t, "unavailable", byName["weatherapi"])
}

func TestRegistry_RegisterClient(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("exa"))

	registry.RegisterClient("exa", client)

	health := registry.Health("exa")
	require.NotNil(t, health)
	assert.Equal(t, "ok", health.Status)
}
