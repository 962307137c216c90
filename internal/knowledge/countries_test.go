package knowledge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/knowledge"
)

func TestForCountry_France(t *testing.T) {
	advice, ok := knowledge.ForCountry("France")
	require.True(t, ok)

	assert.Equal(t, "medium", advice.Risk)
	require.NotEmpty(t, advice.Tips)
	assert.Equal(t, "Emergency number: 112", advice.Tips[len(advice.Tips)-1])
	assert.Equal(t, "112", advice.EmergencyNumber)
}

func TestForCountry_CaseInsensitive(t *testing.T) {
	advice, ok := knowledge.ForCountry("  JAPAN ")
	require.True(t, ok)
	assert.Equal(t, "low", advice.Risk)
}

func TestForCountry_UnknownGetsGenericAdvice(t *testing.T) {
	advice, ok := knowledge.ForCountry("Atlantis")
	assert.False(t, ok)

	assert.Equal(t, "medium", advice.Risk)
	require.NotEmpty(t, advice.Tips)
	assert.Equal(t, "Emergency number: 112", advice.Tips[len(advice.Tips)-1])
}

func TestForCountry_LastTipAlwaysNamesEmergencyNumber(t *testing.T) {
	for _, country := range []string{
		"france", "germany", "spain", "italy", "united kingdom",
		"united states", "japan", "thailand", "mexico", "australia",
	} {
		advice, ok := knowledge.ForCountry(country)
		require.True(t, ok, country)
		require.NotEmpty(t, advice.Tips, country)
		assert.Contains(t, advice.Tips[len(advice.Tips)-1], advice.EmergencyNumber, country)
	}
}

func TestEmergencyNumbers_ReturnsAtMostThree(t *testing.T) {
	contacts := knowledge.EmergencyNumbers("thailand")
	require.NotEmpty(t, contacts)
	assert.LessOrEqual(t, len(contacts), 3)
}

func TestEmergencyNumbers_UnknownCountryFallsBackToGSMDefault(t *testing.T) {
	contacts := knowledge.EmergencyNumbers("Atlantis")
	require.Len(t, contacts, 1)
	assert.Equal(t, "112", contacts[0].Number)
}
