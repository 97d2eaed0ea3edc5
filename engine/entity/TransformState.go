package entity

import (
	"fmt"
	"math"

	"github.com/gomirror/gomirror/engine/netutil"
)

// Delta flag bits, part of the wire format. Bits 0-8 are presence bits for
// the nine scalar channels; bit 9 carries the local-space flag and is always
// meaningful regardless of presence bits.
const (
	DELTA_POS_X uint16 = 1 << iota
	DELTA_POS_Y
	DELTA_POS_Z
	DELTA_ROT_X
	DELTA_ROT_Y
	DELTA_ROT_Z
	DELTA_SCALE_X
	DELTA_SCALE_Y
	DELTA_SCALE_Z
	DELTA_LOCAL_SPACE
)

// DELTA_ALL_CHANNELS masks the nine presence bits
const DELTA_ALL_CHANNELS uint16 = DELTA_LOCAL_SPACE - 1

// NumChannels is the number of independently synchronized scalar channels
const NumChannels = 9

// DefaultEpsilon is the approximate-equality epsilon used to ignore
// floating-point noise even when thresholds are zero
const DefaultEpsilon Coord = 1e-5

// TransformState is the dirty-tracked, delta-serializable snapshot of an
// entity transform: nine scalar channels plus the local-space flag and the
// timestamp of the last change
type TransformState struct {
	Timestamp  float64
	LocalSpace bool
	Position   Vector3
	Rotation   Vector3
	Scale      Vector3
}

func (st *TransformState) String() string {
	return fmt.Sprintf("S<t=%.3f pos=%s rot=%s scale=%s>", st.Timestamp, st.Position, st.Rotation, st.Scale)
}

// Transform returns the transform carried by the state
func (st *TransformState) Transform() Transform {
	return Transform{Position: st.Position, Rotation: st.Rotation, Scale: st.Scale}
}

// SetTransform overwrites the transform channels of the state
func (st *TransformState) SetTransform(t Transform) {
	st.Position = t.Position
	st.Rotation = t.Rotation
	st.Scale = t.Scale
}

func (st *TransformState) channel(i int) *Coord {
	switch i {
	case 0:
		return &st.Position.X
	case 1:
		return &st.Position.Y
	case 2:
		return &st.Position.Z
	case 3:
		return &st.Rotation.X
	case 4:
		return &st.Rotation.Y
	case 5:
		return &st.Rotation.Z
	case 6:
		return &st.Scale.X
	case 7:
		return &st.Scale.Y
	default:
		return &st.Scale.Z
	}
}

// SyncSettings configures change detection per channel
type SyncSettings struct {
	Enabled    [NumChannels]bool
	Thresholds [NumChannels]Coord
	Epsilon    Coord
	// RotationGuard is the quaternion-dot drift threshold for reconciliation;
	// zero disables the guard
	RotationGuard float64
}

// NewSyncSettings returns settings with all channels enabled and per-group
// thresholds for position, rotation and scale
func NewSyncSettings(posThreshold, rotThreshold, scaleThreshold Coord) *SyncSettings {
	settings := &SyncSettings{Epsilon: DefaultEpsilon}
	for i := 0; i < NumChannels; i++ {
		settings.Enabled[i] = true
	}
	for i := 0; i < 3; i++ {
		settings.Thresholds[i] = posThreshold
		settings.Thresholds[3+i] = rotThreshold
		settings.Thresholds[6+i] = scaleThreshold
	}
	return settings
}

func approxEqual(a, b, epsilon Coord) bool {
	return Coord(math.Abs(float64(a-b))) < epsilon
}

// CheckDirty compares the candidate state against the last-sent state st,
// channel by channel. A channel is dirty iff it is enabled, changed by at
// least its threshold and not approximately equal. Dirty channels are copied
// into st and st.Timestamp is stamped with now. Flipping the local-space flag
// re-dirties every enabled channel since previous samples are in the other
// space.
func (st *TransformState) CheckDirty(candidate *TransformState, settings *SyncSettings, now float64) (bool, uint16) {
	var flags uint16
	spaceFlipped := candidate.LocalSpace != st.LocalSpace

	for i := 0; i < NumChannels; i++ {
		if !settings.Enabled[i] {
			continue
		}
		newVal := *candidate.channel(i)
		oldVal := *st.channel(i)
		delta := Coord(math.Abs(float64(newVal - oldVal)))
		if spaceFlipped || (delta >= settings.Thresholds[i] && !approxEqual(newVal, oldVal, settings.Epsilon)) {
			flags |= 1 << uint(i)
			*st.channel(i) = newVal
		}
	}

	if flags != 0 || spaceFlipped {
		st.Timestamp = now
		st.LocalSpace = candidate.LocalSpace
	}
	return flags != 0 || spaceFlipped, flags
}

// WriteDelta appends the delta to the packet: timestamp, flags, then only
// the present channels in fixed channel order
func (st *TransformState) WriteDelta(packet *netutil.Packet, flags uint16) {
	if st.LocalSpace {
		flags |= DELTA_LOCAL_SPACE
	} else {
		flags &= ^DELTA_LOCAL_SPACE
	}
	packet.AppendFloat64(st.Timestamp)
	packet.AppendUint16(flags)
	for i := 0; i < NumChannels; i++ {
		if flags&(1<<uint(i)) != 0 {
			packet.AppendFloat32(float32(*st.channel(i)))
		}
	}
}

// ReadDelta reads a delta from the packet into st. Only present channels are
// written; absent channels keep their previous values. Returns the flags.
func (st *TransformState) ReadDelta(packet *netutil.Packet) uint16 {
	st.Timestamp = packet.ReadFloat64()
	flags := packet.ReadUint16()
	st.LocalSpace = flags&DELTA_LOCAL_SPACE != 0
	for i := 0; i < NumChannels; i++ {
		if flags&(1<<uint(i)) != 0 {
			*st.channel(i) = Coord(packet.ReadFloat32())
		}
	}
	return flags
}
