package proto

import (
	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/netutil"
)

// Spawn message flag bits, part of the wire format
const (
	// SPAWN_FLAG_SCENE_OBJECT marks the entity as an in-scene placed instance
	SPAWN_FLAG_SCENE_OBJECT = 1 << 0
	// SPAWN_FLAG_PLAYER_OBJECT marks the entity as its owner's player object
	SPAWN_FLAG_PLAYER_OBJECT = 1 << 1
	// SPAWN_FLAG_DESTROY_WITH_SCENE marks the entity to be destroyed on scene unload
	SPAWN_FLAG_DESTROY_WITH_SCENE = 1 << 2
	// SPAWN_FLAG_HAS_PARENT indicates the parent entity id field is present
	SPAWN_FLAG_HAS_PARENT = 1 << 3
	// SPAWN_FLAG_HAS_OWNER indicates the owner peer id field is present
	SPAWN_FLAG_HAS_OWNER = 1 << 4
	// SPAWN_FLAG_HAS_POSITION indicates the initial position fields are present
	SPAWN_FLAG_HAS_POSITION = 1 << 5
	// SPAWN_FLAG_HAS_ROTATION indicates the initial rotation fields are present
	SPAWN_FLAG_HAS_ROTATION = 1 << 6
)

// SpawnMessage carries everything a peer needs to reconstruct an entity.
//
// Wire layout: entity id, prefab hash, flags byte, then the optional fields
// in flag-bit order (parent id, owner id, position x/y/z, rotation x/y/z),
// then the initial state blob.
type SpawnMessage struct {
	ID               common.EntityID
	PrefabHash       uint32
	IsSceneObject    bool
	IsPlayerObject   bool
	DestroyWithScene bool
	ParentID         common.EntityID // NilEntityID when the entity is at root
	OwnerID          common.PeerID   // NilPeerID when unowned
	HasPosition      bool
	Position         [3]float32
	HasRotation      bool
	Rotation         [3]float32
	InitialState     map[string]interface{}
}

func (msg *SpawnMessage) flags() uint8 {
	var flags uint8
	if msg.IsSceneObject {
		flags |= SPAWN_FLAG_SCENE_OBJECT
	}
	if msg.IsPlayerObject {
		flags |= SPAWN_FLAG_PLAYER_OBJECT
	}
	if msg.DestroyWithScene {
		flags |= SPAWN_FLAG_DESTROY_WITH_SCENE
	}
	if !msg.ParentID.IsNil() {
		flags |= SPAWN_FLAG_HAS_PARENT
	}
	if !msg.OwnerID.IsNil() {
		flags |= SPAWN_FLAG_HAS_OWNER
	}
	if msg.HasPosition {
		flags |= SPAWN_FLAG_HAS_POSITION
	}
	if msg.HasRotation {
		flags |= SPAWN_FLAG_HAS_ROTATION
	}
	return flags
}

// AppendSpawnMessage appends the spawn message fields to the packet
func AppendSpawnMessage(packet *netutil.Packet, msg *SpawnMessage) {
	packet.AppendEntityID(msg.ID)
	packet.AppendUint32(msg.PrefabHash)
	flags := msg.flags()
	packet.AppendByte(flags)
	if flags&SPAWN_FLAG_HAS_PARENT != 0 {
		packet.AppendEntityID(msg.ParentID)
	}
	if flags&SPAWN_FLAG_HAS_OWNER != 0 {
		packet.AppendPeerID(msg.OwnerID)
	}
	if flags&SPAWN_FLAG_HAS_POSITION != 0 {
		packet.AppendFloat32(msg.Position[0])
		packet.AppendFloat32(msg.Position[1])
		packet.AppendFloat32(msg.Position[2])
	}
	if flags&SPAWN_FLAG_HAS_ROTATION != 0 {
		packet.AppendFloat32(msg.Rotation[0])
		packet.AppendFloat32(msg.Rotation[1])
		packet.AppendFloat32(msg.Rotation[2])
	}
	packet.AppendData(msg.InitialState)
}

// ReadSpawnMessage reads a spawn message from the packet, in the order
// AppendSpawnMessage wrote it
func ReadSpawnMessage(packet *netutil.Packet) *SpawnMessage {
	msg := &SpawnMessage{
		ParentID: common.NilEntityID,
		OwnerID:  common.NilPeerID,
	}
	msg.ID = packet.ReadEntityID()
	msg.PrefabHash = packet.ReadUint32()
	flags := packet.ReadOneByte()
	msg.IsSceneObject = flags&SPAWN_FLAG_SCENE_OBJECT != 0
	msg.IsPlayerObject = flags&SPAWN_FLAG_PLAYER_OBJECT != 0
	msg.DestroyWithScene = flags&SPAWN_FLAG_DESTROY_WITH_SCENE != 0
	if flags&SPAWN_FLAG_HAS_PARENT != 0 {
		msg.ParentID = packet.ReadEntityID()
	}
	if flags&SPAWN_FLAG_HAS_OWNER != 0 {
		msg.OwnerID = packet.ReadPeerID()
	}
	if flags&SPAWN_FLAG_HAS_POSITION != 0 {
		msg.HasPosition = true
		msg.Position[0] = packet.ReadFloat32()
		msg.Position[1] = packet.ReadFloat32()
		msg.Position[2] = packet.ReadFloat32()
	}
	if flags&SPAWN_FLAG_HAS_ROTATION != 0 {
		msg.HasRotation = true
		msg.Rotation[0] = packet.ReadFloat32()
		msg.Rotation[1] = packet.ReadFloat32()
		msg.Rotation[2] = packet.ReadFloat32()
	}
	packet.ReadData(&msg.InitialState)
	return msg
}
