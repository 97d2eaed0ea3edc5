package entity

import (
	"math"
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/netutil"
)

func coordNear(t *testing.T, want, got Coord) {
	if math.Abs(float64(want-got)) > 1e-3 {
		t.Fatalf("want %v, got %v", want, got)
	}
}

// deltaPacket builds the wire form of a single-channel position X delta
func deltaPacket(timestamp float64, x Coord) *netutil.Packet {
	sender := TransformState{Timestamp: timestamp, Position: Vector3{X: x}}
	packet := netutil.NewPacket()
	sender.WriteDelta(packet, DELTA_POS_X)
	return packet
}

func TestDetectAccumulatesPendingFlags(t *testing.T) {
	e := NewEntity(1)
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)

	assert.T(t, !ts.Detect(1.0), "unchanged transform must stay clean")
	assert.Equal(t, uint16(0), ts.TakePending())

	e.Transform.Position.X = 5
	assert.T(t, ts.Detect(2.0))
	e.Transform.Rotation.Y = 45
	assert.T(t, ts.Detect(3.0))

	// both detections flush as one accumulated delta
	assert.Equal(t, DELTA_POS_X|DELTA_ROT_Y, ts.TakePending())
	assert.Equal(t, uint16(0), ts.TakePending())
}

func TestApplyDeltaOnlyTouchesPresentChannels(t *testing.T) {
	e := NewEntity(1)
	e.Transform.Position = Vector3{Y: 2}
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)

	packet := deltaPacket(1.0, 10)
	ts.ApplyDelta(packet)
	packet.Release()
	ts.TickInterpolation(0.1)

	coordNear(t, 10, e.Transform.Position.X)
	// absent channels hold their spawn values
	coordNear(t, 2, e.Transform.Position.Y)
	assert.Equal(t, One(), e.Transform.Scale)
}

func TestInterpolationBlendsBetweenMeasurements(t *testing.T) {
	e := NewEntity(1)
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)

	for _, m := range []struct {
		t float64
		x Coord
	}{{1.0, 0}, {2.0, 10}} {
		packet := deltaPacket(m.t, m.x)
		ts.ApplyDelta(packet)
		packet.Release()
	}

	// playback anchors at the first measurement and advances by tick time
	ts.TickInterpolation(0.5)
	coordNear(t, 5, e.Transform.Position.X)
	ts.TickInterpolation(0.5)
	coordNear(t, 10, e.Transform.Position.X)
	// clock never reads past the newest measurement
	ts.TickInterpolation(0.5)
	coordNear(t, 10, e.Transform.Position.X)
}

func TestTickNotifiesStateChanged(t *testing.T) {
	e := NewEntity(1)
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)
	behavior := &recordingBehavior{}
	e.AddBehavior(behavior)

	ts.TickInterpolation(0.1)
	assert.Equal(t, 0, len(behavior.stateChanges), "no measurement, no change")

	packet := deltaPacket(1.0, 3)
	ts.ApplyDelta(packet)
	packet.Release()
	ts.TickInterpolation(0.1)
	assert.Equal(t, 1, len(behavior.stateChanges))
	coordNear(t, 3, behavior.stateChanges[0].Position.X)
}

func TestReconcileRevertsPositionAndScaleDrift(t *testing.T) {
	e := NewEntity(1)
	e.Transform.Position = Vector3{X: 5}
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)

	e.Transform.Position.X = 6
	e.Transform.Scale.Y = 2
	ts.reconcile()

	assert.Equal(t, Coord(5), e.Transform.Position.X)
	assert.Equal(t, Coord(1), e.Transform.Scale.Y)
}

func TestReconcileRotationExempt(t *testing.T) {
	e := NewEntity(1)
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)

	// rotation-only drift is left alone, Euler extraction noise would trigger
	// endless false reverts otherwise
	e.Transform.Rotation.Y = 17
	ts.reconcile()
	assert.Equal(t, Coord(17), e.Transform.Rotation.Y)
}

func TestReconcileRotationGuard(t *testing.T) {
	settings := NewSyncSettings(0, 0, 0)
	settings.RotationGuard = 1e-3
	e := NewEntity(1)
	ts := e.EnableSync(settings, 0)

	e.Transform.Rotation.Y = 90
	ts.reconcile()
	assert.Equal(t, Coord(0), e.Transform.Rotation.Y, "drift beyond the guard must revert")
}

func TestLocalSpaceSampling(t *testing.T) {
	mgr, _ := newAuthorityManager()
	parent := NewEntity(1)
	parent.Transform.Position = Vector3{X: 10}
	assert.Equal(t, nil, mgr.Spawn(parent, common.NilPeerID, false))

	child := NewEntity(2)
	child.Transform.Position = Vector3{X: 13}
	ts := child.EnableSync(NewSyncSettings(0, 0, 0), 0)
	ts.UseLocalSpace = true
	assert.Equal(t, nil, mgr.Spawn(child, common.NilPeerID, false))
	mgr.Reparent(child, parent.ID)

	st := ts.sample()
	assert.T(t, st.LocalSpace)
	coordNear(t, 3, st.Position.X)
}

func TestResetToClearsHistory(t *testing.T) {
	e := NewEntity(1)
	ts := e.EnableSync(NewSyncSettings(0, 0, 0), 0)

	packet := deltaPacket(1.0, 50)
	ts.ApplyDelta(packet)
	packet.Release()

	ts.ResetTo(Transform{Position: Vector3{X: 7}, Scale: One()})
	ts.TickInterpolation(0.1)
	coordNear(t, 7, e.Transform.Position.X)
}
