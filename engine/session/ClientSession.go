package session

import (
	"net"
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/config"
	"github.com/gomirror/gomirror/engine/consts"
	"github.com/gomirror/gomirror/engine/entity"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/gmutils"
	"github.com/gomirror/gomirror/engine/netutil"
	"github.com/gomirror/gomirror/engine/prefab"
	"github.com/gomirror/gomirror/engine/proto"
)

type clientPacketItem struct {
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// ClientSession is a non-authoritative replication session: it connects to
// the server, reconstructs entities from spawn messages and interpolates
// received state
type ClientSession struct {
	cfg      *config.GoMirrorConfig
	mgr      *entity.EntityManager
	registry *prefab.Registry

	conn        *proto.ReplicaConnection
	peerID      common.PeerID
	packetQueue chan clientPacketItem
	welcomed    *xnsyncutil.OneTimeCond
	start       time.Time
}

// NewClientSession creates a client session with the config and prefab
// registry
func NewClientSession(cfg *config.GoMirrorConfig, registry *prefab.Registry) *ClientSession {
	cs := &ClientSession{
		cfg:         cfg,
		registry:    registry,
		peerID:      common.NilPeerID,
		packetQueue: make(chan clientPacketItem, consts.SESSION_PACKET_QUEUE_SIZE),
		welcomed:    xnsyncutil.NewOneTimeCond(),
	}

	settings := entity.NewSyncSettings(
		entity.Coord(cfg.Session.PositionThreshold),
		entity.Coord(cfg.Session.RotationThreshold),
		entity.Coord(cfg.Session.ScaleThreshold),
	)
	settings.RotationGuard = cfg.Session.RotationGuard

	cs.mgr = entity.NewEntityManager(&entity.ManagerConfig{
		IsAuthority:    false,
		LocalPeerID:    common.NilPeerID,
		SyncSettings:   settings,
		InterpBackTime: float64(cfg.Session.InterpBackTimeMS) / 1000,
	}, nil, registry)
	return cs
}

// Manager returns the client-side entity manager
func (cs *ClientSession) Manager() *entity.EntityManager {
	return cs.mgr
}

// PeerID returns the id assigned by the server, NilPeerID before welcome
func (cs *ClientSession) PeerID() common.PeerID {
	return cs.peerID
}

// Connect dials the server (TCP or KCP per config) and sends the hello
func (cs *ClientSession) Connect() error {
	var netconn, err = cs.dial()
	if err != nil {
		return err
	}
	conn := netutil.NewBufferedConnection(netconn, false, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE)
	cs.conn = proto.NewReplicaConnection(conn)

	if err := cs.conn.SendPeerHello(); err != nil {
		return err
	}
	if err := cs.conn.Flush(); err != nil {
		return err
	}
	go cs.recvRoutine()
	return nil
}

func (cs *ClientSession) dial() (net.Conn, error) {
	addr := cs.cfg.Client.ServerAddr
	if cs.cfg.Client.UseKCP {
		gmlog.Infof("connecting to server %s over KCP ...", addr)
		return netutil.ConnectKCP(addr, consts.PEER_PROXY_READ_BUFFER_SIZE, consts.PEER_PROXY_WRITE_BUFFER_SIZE)
	}
	gmlog.Infof("connecting to server %s over TCP ...", addr)
	return netutil.ConnectTCP(addr)
}

func (cs *ClientSession) recvRoutine() {
	defer func() {
		cs.conn.Close()
		if err := recover(); err != nil && !netutil.IsConnectionError(err) {
			gmlog.TraceError("client recv error: %v", err)
		} else {
			gmlog.Infof("disconnected from server")
		}
	}()

	for {
		var msgtype proto.MsgType
		pkt, err := cs.conn.Recv(&msgtype)
		if err != nil {
			panic(err)
		}
		cs.packetQueue <- clientPacketItem{msgtype: msgtype, packet: pkt}
	}
}

// WaitWelcome blocks until the server assigned this session its peer id
func (cs *ClientSession) WaitWelcome() {
	cs.welcomed.Wait()
}

// Run drives the client tick loop, blocking forever
func (cs *ClientSession) Run() {
	cs.start = time.Now()
	gmutils.RepeatUntilPanicless(cs.serveRoutine)
}

func (cs *ClientSession) serveRoutine() {
	ticker := time.Tick(consts.SESSION_TICK_INTERVAL)
	for {
		select {
		case item := <-cs.packetQueue:
			cs.handlePacket(item.msgtype, item.packet)
			item.packet.Release()
		case <-ticker:
			timer.Tick()
			now := time.Since(cs.start).Seconds()
			cs.mgr.Tick(now, consts.SESSION_TICK_INTERVAL.Seconds())
		}
	}
}

func (cs *ClientSession) handlePacket(msgtype proto.MsgType, pkt *netutil.Packet) {
	if msgtype == proto.MT_PEER_WELCOME {
		cs.peerID = pkt.ReadPeerID()
		gmlog.Infof("welcomed by server as %s", cs.peerID)
		cs.welcomed.Signal()
		return
	}
	Dispatch(cs.mgr, msgtype, pkt)
}
