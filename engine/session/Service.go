package session

import (
	"fmt"
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

type packetQueueItem struct {
	proxy   *PeerProxy
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// Service is the authoritative replication session: it listens for peers,
// drives the single-threaded tick loop and owns the entity manager
type Service struct {
	cfg      *config.GoMirrorConfig
	mgr      *entity.EntityManager
	registry *prefab.Registry

	packetQueue chan packetQueueItem
	proxies     map[common.PeerID]*PeerProxy
	nextPeerID  common.PeerID

	ready      *xnsyncutil.OneTimeCond
	start      time.Time
	syncPeriod float64
	syncAccum  float64
}

// NewService creates the server session with the config and prefab registry
func NewService(cfg *config.GoMirrorConfig, registry *prefab.Registry) *Service {
	s := &Service{
		cfg:         cfg,
		registry:    registry,
		packetQueue: make(chan packetQueueItem, consts.SESSION_PACKET_QUEUE_SIZE),
		proxies:     map[common.PeerID]*PeerProxy{},
		nextPeerID:  common.ServerPeerID,
		ready:       xnsyncutil.NewOneTimeCond(),
		syncPeriod:  float64(cfg.Session.SyncIntervalMS) / 1000,
	}

	settings := entity.NewSyncSettings(
		entity.Coord(cfg.Session.PositionThreshold),
		entity.Coord(cfg.Session.RotationThreshold),
		entity.Coord(cfg.Session.ScaleThreshold),
	)
	settings.RotationGuard = cfg.Session.RotationGuard

	s.mgr = entity.NewEntityManager(&entity.ManagerConfig{
		IsAuthority:    true,
		LocalPeerID:    common.ServerPeerID,
		RecycleIDs:     cfg.Session.RecycleIDs,
		RecycleDelay:   cfg.Session.RecycleDelay,
		SyncSettings:   settings,
		InterpBackTime: float64(cfg.Session.InterpBackTimeMS) / 1000,
	}, s, registry)
	return s
}

// Manager returns the authoritative entity manager
func (s *Service) Manager() *entity.EntityManager {
	return s.mgr
}

// Registry returns the prefab registry
func (s *Service) Registry() *prefab.Registry {
	return s.registry
}

// SendMessage implements entity.Transport over the peer proxies
func (s *Service) SendMessage(payload []byte, guarantee proto.DeliveryGuarantee, peers []common.PeerID) int {
	for _, peerID := range peers {
		proxy := s.proxies[peerID]
		if proxy == nil {
			continue
		}
		if err := proxy.SendPayload(payload); err != nil {
			gmlog.Errorf("%s: send %s failed: %v", proxy, guarantee, err)
		}
	}
	return len(payload)
}

// Run listens on the configured addresses and enters the session loop,
// blocking forever
func (s *Service) Run() {
	listenAddr := fmt.Sprintf("%s:%d", s.cfg.Server.Ip, s.cfg.Server.Port)
	go netutil.ServeTCPForever(listenAddr, s)
	if s.cfg.Server.KCPPort != 0 {
		kcpAddr := fmt.Sprintf("%s:%d", s.cfg.Server.Ip, s.cfg.Server.KCPPort)
		go netutil.ServeKCPForever(kcpAddr, s, consts.PEER_PROXY_READ_BUFFER_SIZE, consts.PEER_PROXY_WRITE_BUFFER_SIZE)
	}

	s.start = time.Now()
	s.ready.Signal()
	gmutils.RepeatUntilPanicless(s.serveRoutine)
}

// WaitReady blocks until the session loop has started
func (s *Service) WaitReady() {
	s.ready.Wait()
}

// ServeTCPConnection handles an accepted peer connection, called by the
// listener goroutines
func (s *Service) ServeTCPConnection(conn net.Conn) {
	proxy := newPeerProxy(conn, s)
	proxy.SetRecvDeadline(time.Now().Add(consts.PEER_HELLO_TIMEOUT))
	proxy.serve()
}

func (s *Service) serveRoutine() {
	ticker := time.Tick(consts.SESSION_TICK_INTERVAL)
	for {
		select {
		case item := <-s.packetQueue:
			s.handlePacket(item.proxy, item.msgtype, item.packet)
			item.packet.Release()
		case <-ticker:
			timer.Tick()
			s.tickReplication(consts.SESSION_TICK_INTERVAL.Seconds())
		}
	}
}

// tickReplication runs change detection and delta flushing once the sync
// interval has elapsed
func (s *Service) tickReplication(deltaTime float64) {
	s.syncAccum += deltaTime
	if s.syncAccum < s.syncPeriod {
		return
	}
	now := time.Since(s.start).Seconds()
	s.mgr.Tick(now, s.syncAccum)
	s.syncAccum = 0
	s.flushProxies()
}

func (s *Service) flushProxies() {
	for _, proxy := range s.proxies {
		if err := proxy.Flush(); err != nil {
			gmlog.Debugf("%s: flush failed: %v", proxy, err)
		}
	}
}

func (s *Service) handlePacket(proxy *PeerProxy, msgtype proto.MsgType, pkt *netutil.Packet) {
	if msgtype == proto.MT_PEER_HELLO {
		s.handlePeerHello(proxy)
		return
	}
	// peers never originate lifecycle or delta messages in a
	// server-authoritative session
	gmlog.Warnf("%s: unexpected msgtype %v, dropped", proxy, msgtype)
}

func (s *Service) handlePeerHello(proxy *PeerProxy) {
	if !proxy.peerID.IsNil() {
		gmlog.Warnf("%s: duplicate hello, dropped", proxy)
		return
	}
	proxy.SetRecvDeadline(time.Time{})

	s.nextPeerID++
	for s.nextPeerID.IsNil() || s.nextPeerID.IsServer() || s.proxies[s.nextPeerID] != nil {
		s.nextPeerID++
	}
	peerID := s.nextPeerID
	proxy.peerID = peerID
	s.proxies[peerID] = proxy

	if err := proxy.SendPeerWelcome(peerID); err != nil {
		gmlog.Errorf("%s: send welcome failed: %v", proxy, err)
	}
	s.mgr.OnPeerJoined(peerID)
	if err := proxy.Flush(); err != nil {
		gmlog.Debugf("%s: flush failed: %v", proxy, err)
	}
}

func (s *Service) onPeerProxyClose(proxy *PeerProxy) {
	s.mgr.Post(func() {
		if proxy.peerID.IsNil() {
			return
		}
		delete(s.proxies, proxy.peerID)
		s.mgr.OnPeerLeft(proxy.peerID)
	})
}
