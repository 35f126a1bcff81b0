package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("captchaflow", nil)

	c.RecordOutcome("solved")
	c.RecordTransition("CHECKBOX", "CLASSIFYING")
	c.RecordReload()
	c.RecordRefreshRetry()
	c.ObserveDetection(120 * time.Millisecond)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["captchaflow_solve_outcomes_total"])
	assert.True(t, names["captchaflow_state_transitions_total"])
	assert.True(t, names["captchaflow_challenge_reloads_total"])
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.RecordOutcome("solved")
	c.RecordTransition("a", "b")
	c.RecordReload()
	c.RecordRefreshRetry()
	c.ObserveDetection(time.Second)
	assert.Nil(t, c.Registry())
}
