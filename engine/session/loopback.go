package session

import (
	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/entity"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/proto"
)

type loopbackMsg struct {
	dest    common.PeerID
	payload []byte
}

// Loopback is an in-process transport pairing an authoritative manager with
// client managers, used by tests and offline tools. Messages are queued on
// send and handed to the destination manager on Deliver, preserving the
// incoming-messages-first phase order of the tick.
type Loopback struct {
	endpoints map[common.PeerID]*entity.EntityManager
	pending   []loopbackMsg
}

// NewLoopback creates an empty loopback transport
func NewLoopback() *Loopback {
	return &Loopback{
		endpoints: map[common.PeerID]*entity.EntityManager{},
	}
}

// Attach binds a peer id to its receiving manager
func (lb *Loopback) Attach(peerID common.PeerID, mgr *entity.EntityManager) {
	lb.endpoints[peerID] = mgr
}

// SendMessage implements entity.Transport. Payloads are copied since packet
// buffers are pooled.
func (lb *Loopback) SendMessage(payload []byte, guarantee proto.DeliveryGuarantee, peers []common.PeerID) int {
	for _, peerID := range peers {
		if lb.endpoints[peerID] == nil {
			gmlog.Warnf("loopback: no endpoint for %s, dropped", peerID)
			continue
		}
		buf := make([]byte, len(payload))
		copy(buf, payload)
		lb.pending = append(lb.pending, loopbackMsg{dest: peerID, payload: buf})
	}
	return len(payload)
}

// Deliver dispatches all queued messages into their destination managers
func (lb *Loopback) Deliver() {
	pending := lb.pending
	lb.pending = nil
	for _, msg := range pending {
		DispatchPayload(lb.endpoints[msg.dest], msg.payload)
	}
}
