// Package changer holds the voice-transform mode state shared by every
// active session.
package changer

import "sync/atomic"

// Mode selects a fixed pitch transform.
type Mode int32

const (
	ModeNormal Mode = iota
	ModePitchUp
	ModePitchDown
	ModeMaleToFemale
	ModeFemaleToMale
)

// Offset returns the semitone shift the mode maps to.
func (m Mode) Offset() float64 {
	switch m {
	case ModePitchUp:
		return 6
	case ModePitchDown:
		return -6
	case ModeMaleToFemale:
		return 10
	case ModeFemaleToMale:
		return -10
	default:
		return 0
	}
}

func (m Mode) String() string {
	switch m {
	case ModePitchUp:
		return "pitch up"
	case ModePitchDown:
		return "pitch down"
	case ModeMaleToFemale:
		return "gender male-to-female"
	case ModeFemaleToMale:
		return "gender female-to-male"
	default:
		return "normal"
	}
}

// Describe returns a human-readable description for the status display.
func (m Mode) Describe() string {
	switch m {
	case ModePitchUp:
		return "high voice (+6 semitones)"
	case ModePitchDown:
		return "low voice (-6 semitones)"
	case ModeMaleToFemale:
		return "opposite voice, male to female (+10 semitones)"
	case ModeFemaleToMale:
		return "opposite voice, female to male (-10 semitones)"
	default:
		return "normal (no transform)"
	}
}

// VoiceChanger is the shared mode controller. One instance applies a
// single global mode to every session in the process. SetMode is a rare
// write from the command path; Offset runs once per processed block on
// the audio path, so reads are a single atomic load with no lock.
type VoiceChanger struct {
	mode atomic.Int32
}

// New returns a controller in ModeNormal.
func New() *VoiceChanger {
	return &VoiceChanger{}
}

// SetMode switches the active mode and returns the previous one. Any mode
// is reachable from any mode; setting the current mode is a no-op.
func (v *VoiceChanger) SetMode(m Mode) Mode {
	return Mode(v.mode.Swap(int32(m)))
}

// Mode returns the active mode.
func (v *VoiceChanger) Mode() Mode {
	return Mode(v.mode.Load())
}

// Offset returns the semitone shift of the active mode.
func (v *VoiceChanger) Offset() float64 {
	return v.Mode().Offset()
}

// Describe returns the description of the active mode.
func (v *VoiceChanger) Describe() string {
	return v.Mode().Describe()
}
