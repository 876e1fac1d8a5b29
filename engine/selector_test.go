package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_BindsAnEngine(t *testing.T) {
	e := Select(48000)
	require.NotNil(t, e)
	assert.Equal(t, "spectral", e.Name())
}

func TestSelect_FallsBackToBaseline(t *testing.T) {
	// An unusable sample rate fails the spectral and time-domain
	// constructors, so the selector must fall through to the baseline
	// tier rather than fail.
	e := Select(0)
	require.NotNil(t, e)
	assert.Equal(t, "resampling", e.Name())
}
