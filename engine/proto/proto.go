package proto

// MsgType is the type of wire messages
type MsgType uint16

const (
	// MT_INVALID is the invalid message type
	MT_INVALID MsgType = iota
	// MT_PEER_HELLO is sent by a peer right after connecting
	MT_PEER_HELLO
	// MT_PEER_WELCOME is sent by the server to assign the peer its PeerID
	MT_PEER_WELCOME
	// MT_SPAWN is a message type for spawning entities on peers
	MT_SPAWN
	// MT_DESPAWN is a message type for despawning entities on peers
	MT_DESPAWN
	// MT_OWNERSHIP_CHANGE is a message type for ownership transfers
	MT_OWNERSHIP_CHANGE
	// MT_STATE_DELTA is a message type for transform state deltas
	MT_STATE_DELTA
)

func (mt MsgType) String() string {
	switch mt {
	case MT_PEER_HELLO:
		return "PEER_HELLO"
	case MT_PEER_WELCOME:
		return "PEER_WELCOME"
	case MT_SPAWN:
		return "SPAWN"
	case MT_DESPAWN:
		return "DESPAWN"
	case MT_OWNERSHIP_CHANGE:
		return "OWNERSHIP_CHANGE"
	case MT_STATE_DELTA:
		return "STATE_DELTA"
	default:
		return "INVALID"
	}
}

// DeliveryGuarantee is the delivery guarantee requested for an outgoing message
type DeliveryGuarantee uint8

const (
	// DELIVERY_RELIABLE_SEQUENCED is used for spawn/despawn/ownership notifications
	DELIVERY_RELIABLE_SEQUENCED DeliveryGuarantee = iota
	// DELIVERY_RELIABLE_FRAGMENTED_SEQUENCED is used for initial spawn payloads
	// that may exceed one packet
	DELIVERY_RELIABLE_FRAGMENTED_SEQUENCED
	// DELIVERY_UNRELIABLE_SEQUENCED is used for transform state deltas
	DELIVERY_UNRELIABLE_SEQUENCED
)

func (dg DeliveryGuarantee) String() string {
	switch dg {
	case DELIVERY_RELIABLE_SEQUENCED:
		return "ReliableSequenced"
	case DELIVERY_RELIABLE_FRAGMENTED_SEQUENCED:
		return "ReliableFragmentedSequenced"
	case DELIVERY_UNRELIABLE_SEQUENCED:
		return "UnreliableSequenced"
	default:
		return "Unknown"
	}
}
