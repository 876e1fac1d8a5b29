package changer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeOffsets(t *testing.T) {
	cases := []struct {
		mode   Mode
		offset float64
	}{
		{ModeNormal, 0},
		{ModePitchUp, 6},
		{ModePitchDown, -6},
		{ModeMaleToFemale, 10},
		{ModeFemaleToMale, -10},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			v := New()
			v.SetMode(tc.mode)
			assert.Equal(t, tc.offset, v.Offset())
		})
	}
}

func TestSetMode_ReturnsPrevious(t *testing.T) {
	v := New()
	assert.Equal(t, ModeNormal, v.Mode())

	prev := v.SetMode(ModePitchUp)
	assert.Equal(t, ModeNormal, prev)

	prev = v.SetMode(ModeFemaleToMale)
	assert.Equal(t, ModePitchUp, prev)
	assert.Equal(t, -10.0, v.Offset())
}

func TestSetMode_Idempotent(t *testing.T) {
	v := New()
	v.SetMode(ModePitchDown)
	v.SetMode(ModePitchDown)
	assert.Equal(t, ModePitchDown, v.Mode())
	assert.Equal(t, -6.0, v.Offset())
}

func TestModeSequence(t *testing.T) {
	v := New()
	v.SetMode(ModePitchUp)
	assert.Equal(t, 6.0, v.Offset())
	v.SetMode(ModeFemaleToMale)
	assert.Equal(t, -10.0, v.Offset())
}

func TestConcurrentReads(t *testing.T) {
	v := New()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				_ = v.Offset()
			}
		}()
	}
	v.SetMode(ModeMaleToFemale)
	wg.Wait()
	assert.Equal(t, 10.0, v.Offset())
}

func TestDescribe(t *testing.T) {
	v := New()
	assert.Contains(t, v.Describe(), "normal")
	v.SetMode(ModeMaleToFemale)
	assert.Contains(t, v.Describe(), "+10")
}
