package proto

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/netutil"
)

func TestSpawnMessageRoundTrip(t *testing.T) {
	msg := &SpawnMessage{
		ID:             common.EntityID(42),
		PrefabHash:     0xCAFE,
		IsPlayerObject: true,
		ParentID:       common.EntityID(7),
		OwnerID:        common.PeerID(3),
		HasPosition:    true,
		Position:       [3]float32{1, 2, 3},
		InitialState:   map[string]interface{}{"hp": int8(100)},
	}

	packet := netutil.NewPacket()
	defer packet.Release()
	AppendSpawnMessage(packet, msg)

	got := ReadSpawnMessage(packet)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.PrefabHash, got.PrefabHash)
	assert.Equal(t, false, got.IsSceneObject)
	assert.Equal(t, true, got.IsPlayerObject)
	assert.Equal(t, msg.ParentID, got.ParentID)
	assert.Equal(t, msg.OwnerID, got.OwnerID)
	assert.Equal(t, true, got.HasPosition)
	assert.Equal(t, msg.Position, got.Position)
	assert.Equal(t, false, got.HasRotation)
	assert.T(t, got.InitialState != nil, "initial state blob lost")
	assert.T(t, !packet.HasUnreadPayload(), "payload should be fully read")
}

func TestSpawnMessageMinimal(t *testing.T) {
	msg := &SpawnMessage{
		ID:         common.EntityID(1),
		PrefabHash: 1,
		ParentID:   common.NilEntityID,
		OwnerID:    common.NilPeerID,
	}

	packet := netutil.NewPacket()
	defer packet.Release()
	AppendSpawnMessage(packet, msg)

	got := ReadSpawnMessage(packet)
	assert.T(t, got.ParentID.IsNil(), "parent should be nil")
	assert.T(t, got.OwnerID.IsNil(), "owner should be nil")
	assert.Equal(t, false, got.HasPosition)
	assert.Equal(t, false, got.HasRotation)
}
