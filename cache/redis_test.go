package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_JSONShape(t *testing.T) {
	s := Status{
		Mode:          "pitch up",
		Engine:        "spectral",
		Sessions:      3,
		Connected:     true,
		UptimeSeconds: 120,
		CPUPercent:    12.5,
		MemoryPercent: 40.0,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "pitch up", decoded["mode"])
	assert.Equal(t, "spectral", decoded["engine"])
	assert.Equal(t, float64(3), decoded["sessions"])
	assert.Equal(t, true, decoded["connected"])
	assert.Contains(t, decoded, "cpu_percent")
	assert.Contains(t, decoded, "memory_percent")
}
