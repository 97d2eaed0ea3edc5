package session

import (
	"fmt"
	"net"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/consts"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/netutil"
	"github.com/gomirror/gomirror/engine/proto"
)

// PeerProxy is one peer's connection managed by the server service
type PeerProxy struct {
	*proto.ReplicaConnection
	peerID  common.PeerID
	service *Service
}

func newPeerProxy(netconn net.Conn, service *Service) *PeerProxy {
	if tcpConn, ok := netconn.(*net.TCPConn); ok && consts.PEER_PROXY_SET_TCP_NO_DELAY {
		tcpConn.SetNoDelay(true)
	}
	conn := netutil.NewBufferedConnection(netconn, false, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE)
	proxy := &PeerProxy{
		peerID:  common.NilPeerID,
		service: service,
	}
	proxy.ReplicaConnection = proto.NewReplicaConnection(conn)
	return proxy
}

func (pp *PeerProxy) String() string {
	return fmt.Sprintf("PeerProxy<%s@%s>", pp.peerID, pp.RemoteAddr())
}

// SendPayload sends an already encoded message payload to the peer
func (pp *PeerProxy) SendPayload(payload []byte) error {
	packet := netutil.NewPacket()
	packet.AppendBytes(payload)
	return pp.SendPacketRelease(packet)
}

func (pp *PeerProxy) serve() {
	defer func() {
		pp.Close()
		pp.service.onPeerProxyClose(pp)

		if err := recover(); err != nil && !netutil.IsConnectionError(err) {
			gmlog.TraceError("%s error: %v", pp, err)
		} else {
			gmlog.Debugf("%s disconnected", pp)
		}
	}()

	for {
		var msgtype proto.MsgType
		pkt, err := pp.Recv(&msgtype)
		if err != nil {
			panic(err)
		}
		pp.service.packetQueue <- packetQueueItem{proxy: pp, msgtype: msgtype, packet: pkt}
	}
}
