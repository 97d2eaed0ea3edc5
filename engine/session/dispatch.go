package session

import (
	"github.com/gomirror/gomirror/engine/entity"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/netutil"
	"github.com/gomirror/gomirror/engine/proto"
)

// Dispatch routes one decoded replication message into the entity manager.
// Shared by the network client session and the loopback transport.
func Dispatch(mgr *entity.EntityManager, msgtype proto.MsgType, pkt *netutil.Packet) {
	switch msgtype {
	case proto.MT_SPAWN:
		msg := proto.ReadSpawnMessage(pkt)
		if err := mgr.OnReceiveSpawn(msg); err != nil {
			gmlog.TraceError("spawn %s failed: %v", msg.ID, err)
		}
	case proto.MT_DESPAWN:
		mgr.OnReceiveDespawn(pkt.ReadEntityID())
	case proto.MT_OWNERSHIP_CHANGE:
		id := pkt.ReadEntityID()
		newOwner := pkt.ReadPeerID()
		mgr.OnReceiveOwnershipChange(id, newOwner)
	case proto.MT_STATE_DELTA:
		id := pkt.ReadEntityID()
		mgr.OnReceiveStateDelta(id, pkt)
	default:
		gmlog.Warnf("unknown msgtype %v, dropped", msgtype)
	}
}

// DispatchPayload decodes an encoded message payload and routes it
func DispatchPayload(mgr *entity.EntityManager, payload []byte) {
	pkt := netutil.NewPacket()
	pkt.AppendBytes(payload)
	msgtype := proto.MsgType(pkt.ReadUint16())
	Dispatch(mgr, msgtype, pkt)
	pkt.Release()
}
