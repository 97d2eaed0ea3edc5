package entity

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/netutil"
)

func TestCheckDirtyThreshold(t *testing.T) {
	settings := NewSyncSettings(0.1, 0.1, 0.1)
	var last TransformState

	candidate := TransformState{Position: Vector3{X: 0.05}}
	dirty, flags := last.CheckDirty(&candidate, settings, 1.0)
	assert.T(t, !dirty, "change below threshold must not go dirty")
	assert.Equal(t, uint16(0), flags)

	candidate.Position.X = 0.15
	dirty, flags = last.CheckDirty(&candidate, settings, 2.0)
	assert.T(t, dirty)
	assert.Equal(t, DELTA_POS_X, flags)
	assert.Equal(t, Coord(0.15), last.Position.X)
	assert.Equal(t, 2.0, last.Timestamp)

	// unchanged again: clean
	dirty, flags = last.CheckDirty(&candidate, settings, 3.0)
	assert.T(t, !dirty)
	assert.Equal(t, uint16(0), flags)
	assert.Equal(t, 2.0, last.Timestamp)
}

func TestCheckDirtyZeroThresholdUsesEpsilon(t *testing.T) {
	settings := NewSyncSettings(0, 0, 0)
	var last TransformState

	// below epsilon: floating point noise, not a change
	candidate := TransformState{Position: Vector3{X: 1e-7}}
	dirty, _ := last.CheckDirty(&candidate, settings, 1.0)
	assert.T(t, !dirty)

	candidate.Position.X = 0.001
	dirty, flags := last.CheckDirty(&candidate, settings, 2.0)
	assert.T(t, dirty)
	assert.Equal(t, DELTA_POS_X, flags)
}

func TestCheckDirtyDisabledChannel(t *testing.T) {
	settings := NewSyncSettings(0, 0, 0)
	settings.Enabled[1] = false // position Y

	var last TransformState
	candidate := TransformState{Position: Vector3{Y: 5}}
	dirty, flags := last.CheckDirty(&candidate, settings, 1.0)
	assert.T(t, !dirty)
	assert.Equal(t, uint16(0), flags)
}

func TestCheckDirtyLocalSpaceFlip(t *testing.T) {
	settings := NewSyncSettings(0.1, 0.1, 0.1)
	var last TransformState

	// same values, only the space changed: every enabled channel resends
	candidate := TransformState{LocalSpace: true}
	dirty, flags := last.CheckDirty(&candidate, settings, 1.0)
	assert.T(t, dirty)
	assert.Equal(t, DELTA_ALL_CHANNELS, flags)
	assert.T(t, last.LocalSpace)
}

func TestDeltaAbsentChannelsUntouched(t *testing.T) {
	sent := TransformState{
		Timestamp: 3.5,
		Position:  Vector3{X: 1, Y: 2, Z: 3},
		Rotation:  Vector3{Y: 90},
		Scale:     One(),
	}

	packet := netutil.NewPacket()
	defer packet.Release()
	sent.WriteDelta(packet, DELTA_POS_X|DELTA_ROT_Y)

	received := TransformState{
		Position: Vector3{X: -1, Y: -2, Z: -3},
		Scale:    Vector3{X: 7, Y: 7, Z: 7},
	}
	flags := received.ReadDelta(packet)
	assert.Equal(t, DELTA_POS_X|DELTA_ROT_Y, flags)
	assert.Equal(t, 3.5, received.Timestamp)

	// present channels overwritten
	assert.Equal(t, Coord(1), received.Position.X)
	assert.Equal(t, Coord(90), received.Rotation.Y)
	// absent channels keep their previous values
	assert.Equal(t, Coord(-2), received.Position.Y)
	assert.Equal(t, Coord(-3), received.Position.Z)
	assert.Equal(t, Vector3{X: 7, Y: 7, Z: 7}, received.Scale)
}

func TestDeltaLocalSpaceBitRoundTrip(t *testing.T) {
	sent := TransformState{LocalSpace: true, Position: Vector3{X: 4}}

	packet := netutil.NewPacket()
	defer packet.Release()
	sent.WriteDelta(packet, DELTA_POS_X)

	var received TransformState
	flags := received.ReadDelta(packet)
	assert.T(t, flags&DELTA_LOCAL_SPACE != 0)
	assert.T(t, received.LocalSpace)
}
