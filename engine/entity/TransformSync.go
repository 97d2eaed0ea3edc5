package entity

import (
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/interp"
	"github.com/gomirror/gomirror/engine/netutil"
)

// TransformSync keeps one entity's transform replicated. On the
// authoritative side it samples the live transform and detects per-channel
// deltas against the last-sent state; on other peers it feeds received
// deltas into interpolators, applies the interpolated values every tick and
// reverts unauthorized local mutation.
type TransformSync struct {
	entity   *Entity
	settings *SyncSettings

	// UseLocalSpace makes position samples relative to the logical parent
	UseLocalSpace bool

	lastSent     TransformState // authority: last transmitted values
	pendingFlags uint16

	received  TransformState // remote: merged latest received values
	shadow    Transform      // remote: transform as last applied by the sync
	hasShadow bool

	posInterp   [3]interp.Interpolator
	rotInterp   interp.Interpolator
	scaleInterp [3]interp.Interpolator
}

func newTransformSync(e *Entity, settings *SyncSettings, backTime float64) *TransformSync {
	ts := &TransformSync{
		entity:   e,
		settings: settings,
	}
	for i := 0; i < 3; i++ {
		ts.posInterp[i] = interp.NewScalar(backTime)
		ts.scaleInterp[i] = interp.NewScalar(backTime)
	}
	ts.rotInterp = interp.NewRotation(backTime)
	ts.ResetTo(e.Transform)
	return ts
}

// Settings returns the change-detection settings
func (ts *TransformSync) Settings() *SyncSettings {
	return ts.settings
}

func (ts *TransformSync) sample() TransformState {
	st := TransformState{LocalSpace: ts.UseLocalSpace}
	t := ts.entity.Transform
	if ts.UseLocalSpace {
		if parent := ts.entity.parent(); parent != nil {
			t.Position = t.Position.Sub(parent.Transform.Position)
		}
	}
	st.SetTransform(t)
	return st
}

// Detect runs change detection on the authoritative side, accumulating dirty
// flags until the next flush. Returns whether anything new went dirty.
func (ts *TransformSync) Detect(now float64) bool {
	candidate := ts.sample()
	dirty, flags := ts.lastSent.CheckDirty(&candidate, ts.settings, now)
	ts.pendingFlags |= flags
	return dirty
}

// TakePending returns and clears the accumulated dirty flags
func (ts *TransformSync) TakePending() uint16 {
	flags := ts.pendingFlags
	ts.pendingFlags = 0
	return flags
}

// WriteDelta appends the pending delta for the given flags to the packet
func (ts *TransformSync) WriteDelta(packet *netutil.Packet, flags uint16) {
	ts.lastSent.WriteDelta(packet, flags)
}

// ApplyDelta merges a received delta and feeds the interpolators of the
// channels it carries. Channels absent from the delta are not touched.
func (ts *TransformSync) ApplyDelta(packet *netutil.Packet) {
	flags := ts.received.ReadDelta(packet)
	t := ts.received.Timestamp

	for i := 0; i < 3; i++ {
		if flags&(1<<uint(i)) != 0 {
			ts.posInterp[i].AddMeasurement(interp.Value{float32(*ts.received.channel(i))}, t)
		}
		if flags&(1<<uint(6+i)) != 0 {
			ts.scaleInterp[i].AddMeasurement(interp.Value{float32(*ts.received.channel(6 + i))}, t)
		}
	}
	// rotation axes are detected independently but always interpolated as one
	// rotation
	if flags&(DELTA_ROT_X|DELTA_ROT_Y|DELTA_ROT_Z) != 0 {
		r := ts.received.Rotation
		ts.rotInterp.AddMeasurement(interp.Value{float32(r.X), float32(r.Y), float32(r.Z)}, t)
	}
}

// TickInterpolation reconciles against local mutation, advances the
// interpolators and applies the result to the live transform. Runs on
// non-authoritative peers once per tick.
func (ts *TransformSync) TickInterpolation(deltaTime float64) {
	ts.reconcile()

	next := Transform{}
	for i := 0; i < 3; i++ {
		*posChannel(&next.Position, i) = Coord(ts.posInterp[i].Tick(deltaTime)[0])
		*posChannel(&next.Scale, i) = Coord(ts.scaleInterp[i].Tick(deltaTime)[0])
	}
	rot := ts.rotInterp.Tick(deltaTime)
	next.Rotation = Vector3{Coord(rot[0]), Coord(rot[1]), Coord(rot[2])}

	if ts.received.LocalSpace {
		if parent := ts.entity.parent(); parent != nil {
			next.Position = next.Position.Add(parent.Transform.Position)
		}
	}

	old := ts.entity.Transform
	ts.entity.Transform = next
	ts.shadow = next
	ts.hasShadow = true
	if old != next {
		ts.entity.notifyStateChanged(old, next)
	}
}

// reconcile compares the live transform against the shadow copy of the last
// applied state. Position or scale drift means a local mutation without
// authority: the authoritative state is forcibly restored. Rotation drift is
// exempt since per-frame Euler extraction produces spurious deltas; the
// optional quaternion-dot guard covers it instead.
func (ts *TransformSync) reconcile() {
	if !ts.hasShadow {
		return
	}
	live := &ts.entity.Transform
	epsilon := ts.settings.Epsilon

	if !vecApproxEqual(live.Position, ts.shadow.Position, epsilon) || !vecApproxEqual(live.Scale, ts.shadow.Scale, epsilon) {
		gmlog.Warnf("%s: unauthorized local mutation reverted: %s -> %s", ts.entity, live, ts.shadow)
		live.Position = ts.shadow.Position
		live.Scale = ts.shadow.Scale
	}

	if guard := ts.settings.RotationGuard; guard > 0 {
		qLive := interp.QuaternionFromEuler(float32(live.Rotation.X), float32(live.Rotation.Y), float32(live.Rotation.Z))
		qShadow := interp.QuaternionFromEuler(float32(ts.shadow.Rotation.X), float32(ts.shadow.Rotation.Y), float32(ts.shadow.Rotation.Z))
		dot := qLive.Dot(qShadow)
		if dot < 0 {
			dot = -dot
		}
		if 1-dot > guard {
			gmlog.Warnf("%s: rotation drift beyond guard reverted", ts.entity)
			live.Rotation = ts.shadow.Rotation
		}
	}
}

// ResetTo clears all interpolation history to a single known transform, used
// on spawn and late join
func (ts *TransformSync) ResetTo(t Transform) {
	for i := 0; i < 3; i++ {
		ts.posInterp[i].ResetTo(interp.Value{float32(*posChannel(&t.Position, i))})
		ts.scaleInterp[i].ResetTo(interp.Value{float32(*posChannel(&t.Scale, i))})
	}
	ts.rotInterp.ResetTo(interp.Value{float32(t.Rotation.X), float32(t.Rotation.Y), float32(t.Rotation.Z)})
	ts.received.SetTransform(t)
	ts.lastSent.SetTransform(t)
	ts.shadow = t
	ts.hasShadow = true
}

func posChannel(v *Vector3, i int) *Coord {
	switch i {
	case 0:
		return &v.X
	case 1:
		return &v.Y
	default:
		return &v.Z
	}
}

func vecApproxEqual(a, b Vector3, epsilon Coord) bool {
	return approxEqual(a.X, b.X, epsilon) && approxEqual(a.Y, b.Y, epsilon) && approxEqual(a.Z, b.Z, epsilon)
}
