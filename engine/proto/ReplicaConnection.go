package proto

import (
	"net"
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/consts"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/netutil"
)

// ReplicaConnection is the network protocol implementation between the
// session server and its peers
type ReplicaConnection struct {
	packetConn *netutil.PacketConnection
	closed     xnsyncutil.AtomicBool
}

// NewReplicaConnection creates a ReplicaConnection using network connection
func NewReplicaConnection(conn netutil.Connection) *ReplicaConnection {
	return &ReplicaConnection{
		packetConn: netutil.NewPacketConnection(conn),
	}
}

// SendPeerHello sends MT_PEER_HELLO message
func (rc *ReplicaConnection) SendPeerHello() error {
	packet := rc.packetConn.NewPacket()
	packet.AppendUint16(uint16(MT_PEER_HELLO))
	return rc.SendPacketRelease(packet)
}

// SendPeerWelcome sends MT_PEER_WELCOME message assigning the peer its id
func (rc *ReplicaConnection) SendPeerWelcome(peerID common.PeerID) error {
	packet := rc.packetConn.NewPacket()
	packet.AppendUint16(uint16(MT_PEER_WELCOME))
	packet.AppendPeerID(peerID)
	return rc.SendPacketRelease(packet)
}

// SendSpawn sends MT_SPAWN message
func (rc *ReplicaConnection) SendSpawn(msg *SpawnMessage) error {
	packet := rc.packetConn.NewPacket()
	packet.AppendUint16(uint16(MT_SPAWN))
	AppendSpawnMessage(packet, msg)
	return rc.SendPacketRelease(packet)
}

// SendDespawn sends MT_DESPAWN message
func (rc *ReplicaConnection) SendDespawn(id common.EntityID) error {
	packet := rc.packetConn.NewPacket()
	packet.AppendUint16(uint16(MT_DESPAWN))
	packet.AppendEntityID(id)
	return rc.SendPacketRelease(packet)
}

// SendOwnershipChange sends MT_OWNERSHIP_CHANGE message
func (rc *ReplicaConnection) SendOwnershipChange(id common.EntityID, newOwner common.PeerID) error {
	packet := rc.packetConn.NewPacket()
	packet.AppendUint16(uint16(MT_OWNERSHIP_CHANGE))
	packet.AppendEntityID(id)
	packet.AppendPeerID(newOwner)
	return rc.SendPacketRelease(packet)
}

// NewStateDeltaPacket allocates a packet with the MT_STATE_DELTA envelope
// written; the caller appends the encoded delta and sends with
// SendPacketRelease
func (rc *ReplicaConnection) NewStateDeltaPacket(id common.EntityID) *netutil.Packet {
	packet := rc.packetConn.NewPacket()
	packet.AppendUint16(uint16(MT_STATE_DELTA))
	packet.AppendEntityID(id)
	return packet
}

// SendPacket sends a packet to the remote
func (rc *ReplicaConnection) SendPacket(packet *netutil.Packet) error {
	return rc.packetConn.SendPacket(packet)
}

// SendPacketRelease sends a packet to the remote and releases the packet
func (rc *ReplicaConnection) SendPacketRelease(packet *netutil.Packet) error {
	return rc.packetConn.SendPacketRelease(packet)
}

// Flush flushes the connection
func (rc *ReplicaConnection) Flush() error {
	return rc.packetConn.Flush()
}

// SetAutoFlush starts a goroutine to flush connection writes at some specified interval
func (rc *ReplicaConnection) SetAutoFlush(interval time.Duration) {
	go func() {
		for !rc.IsClosed() {
			time.Sleep(interval)
			err := rc.Flush()
			if err != nil {
				break
			}
		}
	}()
}

// Recv receives the next packet and reads the message type
func (rc *ReplicaConnection) Recv(msgtype *MsgType) (*netutil.Packet, error) {
	pkt, err := rc.packetConn.RecvPacket()
	if err != nil {
		return nil, err
	}

	*msgtype = MsgType(pkt.ReadUint16())
	if consts.DEBUG_PACKETS {
		gmlog.Infof("%s: Recv msgtype=%v, payload size=%d", rc, *msgtype, pkt.GetPayloadLen())
	}
	return pkt, nil
}

// SetRecvDeadline sets receive deadline
func (rc *ReplicaConnection) SetRecvDeadline(deadline time.Time) error {
	return rc.packetConn.SetRecvDeadline(deadline)
}

// Close this connection
func (rc *ReplicaConnection) Close() error {
	rc.closed.Store(true)
	return rc.packetConn.Close()
}

// IsClosed returns if the connection is closed
func (rc *ReplicaConnection) IsClosed() bool {
	return rc.closed.Load()
}

// RemoteAddr returns the remote address
func (rc *ReplicaConnection) RemoteAddr() net.Addr {
	return rc.packetConn.RemoteAddr()
}

// LocalAddr returns the local address
func (rc *ReplicaConnection) LocalAddr() net.Addr {
	return rc.packetConn.LocalAddr()
}

func (rc *ReplicaConnection) String() string {
	return rc.packetConn.String()
}
