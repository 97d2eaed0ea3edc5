package netutil

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/gmlog"
)

const (
	_MIN_PAYLOAD_CAP = 128
)

var (
	packetPool = sync.Pool{
		New: func() interface{} {
			p := &Packet{}
			p.bytes = p.initialBytes[:]
			return p
		},
	}
)

// Packet is a pooled buffer for building and parsing wire messages.
//
// The first PREPAYLOAD_SIZE bytes hold the payload length in network byte
// order; the frame written to a connection is exactly p.data().
type Packet struct {
	readCursor   uint32
	refcount     int64
	bytes        []byte
	initialBytes [PREPAYLOAD_SIZE + _MIN_PAYLOAD_CAP]byte
}

func allocPacket() *Packet {
	pkt := packetPool.Get().(*Packet)
	pkt.refcount = 1

	if pkt.GetPayloadLen() != 0 {
		gmlog.Panicf("allocPacket: payload should be 0, but is %d", pkt.GetPayloadLen())
	}
	return pkt
}

// NewPacket allocates a new packet from the packet pool
func NewPacket() *Packet {
	return allocPacket()
}

// AddRefCount adds reference count of packet
func (p *Packet) AddRefCount(add int64) {
	atomic.AddInt64(&p.refcount, add)
}

// Release releases the packet to the packet pool
func (p *Packet) Release() {
	refcount := atomic.AddInt64(&p.refcount, -1)

	if refcount == 0 {
		p.bytes = p.initialBytes[:]
		p.readCursor = 0
		p.SetPayloadLen(0)
		packetPool.Put(p)
	} else if refcount < 0 {
		gmlog.Panicf("releasing packet with refcount=%d", refcount)
	}
}

// AssureCapacity makes sure the packet has enough capacity for need more bytes
func (p *Packet) AssureCapacity(need uint32) {
	requireCap := p.GetPayloadLen() + need
	oldCap := p.PayloadCap()

	if requireCap <= oldCap { // most case
		return
	}

	if requireCap > MAX_PAYLOAD_LENGTH {
		gmlog.Panicf("packet payload too large: %d", requireCap)
	}

	resizeToCap := oldCap << 1
	for resizeToCap < requireCap {
		resizeToCap <<= 1
	}
	if resizeToCap > MAX_PAYLOAD_LENGTH {
		resizeToCap = MAX_PAYLOAD_LENGTH
	}

	buffer := make([]byte, PREPAYLOAD_SIZE+resizeToCap)
	copy(buffer, p.data())
	p.bytes = buffer
}

// Payload returns the total payload of packet
func (p *Packet) Payload() []byte {
	return p.bytes[PREPAYLOAD_SIZE : PREPAYLOAD_SIZE+p.GetPayloadLen()]
}

// UnreadPayload returns the unread payload
func (p *Packet) UnreadPayload() []byte {
	pos := p.readCursor + PREPAYLOAD_SIZE
	payloadEnd := PREPAYLOAD_SIZE + p.GetPayloadLen()
	return p.bytes[pos:payloadEnd]
}

// HasUnreadPayload returns if there is any unread payload
func (p *Packet) HasUnreadPayload() bool {
	return p.readCursor < p.GetPayloadLen()
}

func (p *Packet) data() []byte {
	return p.bytes[0 : PREPAYLOAD_SIZE+p.GetPayloadLen()]
}

// PayloadCap returns the current payload capacity
func (p *Packet) PayloadCap() uint32 {
	return uint32(len(p.bytes) - PREPAYLOAD_SIZE)
}

// ClearPayload clears packet payload
func (p *Packet) ClearPayload() {
	p.readCursor = 0
	p.SetPayloadLen(0)
}

// GetPayloadLen returns the payload length
func (p *Packet) GetPayloadLen() uint32 {
	return NETWORK_ENDIAN.Uint32(p.bytes[:SIZE_FIELD_SIZE])
}

// SetPayloadLen sets the payload length
func (p *Packet) SetPayloadLen(plen uint32) {
	NETWORK_ENDIAN.PutUint32(p.bytes[:SIZE_FIELD_SIZE], plen)
}

func (p *Packet) extendPayload(size uint32) []byte {
	p.AssureCapacity(size)
	payloadEnd := PREPAYLOAD_SIZE + p.GetPayloadLen()
	p.SetPayloadLen(p.GetPayloadLen() + size)
	return p.bytes[payloadEnd : payloadEnd+size]
}

// AppendByte appends one byte to the end of payload
func (p *Packet) AppendByte(b byte) {
	p.extendPayload(1)[0] = b
}

// ReadOneByte reads one byte from the beginning of unread payload
func (p *Packet) ReadOneByte() (v byte) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = p.bytes[pos]
	p.readCursor++
	return
}

// AppendBool appends one byte 1/0 to the end of payload
func (p *Packet) AppendBool(b bool) {
	if b {
		p.AppendByte(1)
	} else {
		p.AppendByte(0)
	}
}

// ReadBool reads one byte 1/0 from the beginning of unread payload
func (p *Packet) ReadBool() (v bool) {
	return p.ReadOneByte() != 0
}

// AppendUint16 appends one uint16 to the end of payload
func (p *Packet) AppendUint16(v uint16) {
	NETWORK_ENDIAN.PutUint16(p.extendPayload(2), v)
}

// ReadUint16 reads one uint16 from the beginning of unread payload
func (p *Packet) ReadUint16() (v uint16) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = NETWORK_ENDIAN.Uint16(p.bytes[pos : pos+2])
	p.readCursor += 2
	return
}

// AppendUint32 appends one uint32 to the end of payload
func (p *Packet) AppendUint32(v uint32) {
	NETWORK_ENDIAN.PutUint32(p.extendPayload(4), v)
}

// ReadUint32 reads one uint32 from the beginning of unread payload
func (p *Packet) ReadUint32() (v uint32) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = NETWORK_ENDIAN.Uint32(p.bytes[pos : pos+4])
	p.readCursor += 4
	return
}

// AppendUint64 appends one uint64 to the end of payload
func (p *Packet) AppendUint64(v uint64) {
	NETWORK_ENDIAN.PutUint64(p.extendPayload(8), v)
}

// ReadUint64 reads one uint64 from the beginning of unread payload
func (p *Packet) ReadUint64() (v uint64) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = NETWORK_ENDIAN.Uint64(p.bytes[pos : pos+8])
	p.readCursor += 8
	return
}

// AppendFloat32 appends one float32 to the end of payload
func (p *Packet) AppendFloat32(f float32) {
	p.AppendUint32(math.Float32bits(f))
}

// ReadFloat32 reads one float32 from the beginning of unread payload
func (p *Packet) ReadFloat32() float32 {
	return math.Float32frombits(p.ReadUint32())
}

// AppendFloat64 appends one float64 to the end of payload
func (p *Packet) AppendFloat64(f float64) {
	p.AppendUint64(math.Float64bits(f))
}

// ReadFloat64 reads one float64 from the beginning of unread payload
func (p *Packet) ReadFloat64() float64 {
	return math.Float64frombits(p.ReadUint64())
}

// AppendBytes appends slice of bytes to the end of payload
func (p *Packet) AppendBytes(v []byte) {
	copy(p.extendPayload(uint32(len(v))), v)
}

// ReadBytes reads bytes from the beginning of unread payload
func (p *Packet) ReadBytes(size uint32) []byte {
	pos := p.readCursor + PREPAYLOAD_SIZE
	if pos > uint32(len(p.bytes)) || pos+size > uint32(len(p.bytes)) {
		gmlog.Panicf("Packet %p bytes is %d, but reading %d+%d", p, len(p.bytes), pos, size)
	}

	bytes := p.bytes[pos : pos+size] // bytes are not copied
	p.readCursor += size
	return bytes
}

// AppendVarStr appends a varsize string to the end of payload
func (p *Packet) AppendVarStr(s string) {
	p.AppendVarBytes([]byte(s))
}

// ReadVarStr reads a varsize string from the beginning of unread payload
func (p *Packet) ReadVarStr() string {
	return string(p.ReadVarBytes())
}

// AppendVarBytes appends varsize bytes to the end of payload
func (p *Packet) AppendVarBytes(v []byte) {
	p.AppendUint32(uint32(len(v)))
	p.AppendBytes(v)
}

// ReadVarBytes reads a varsize slice of bytes from the beginning of unread payload
func (p *Packet) ReadVarBytes() []byte {
	blen := p.ReadUint32()
	return p.ReadBytes(blen)
}

// AppendEntityID appends one entity ID to the end of payload
func (p *Packet) AppendEntityID(id common.EntityID) {
	p.AppendUint64(uint64(id))
}

// ReadEntityID reads one entity ID from the beginning of unread payload
func (p *Packet) ReadEntityID() common.EntityID {
	return common.EntityID(p.ReadUint64())
}

// AppendPeerID appends one peer ID to the end of payload
func (p *Packet) AppendPeerID(id common.PeerID) {
	p.AppendUint16(uint16(id))
}

// ReadPeerID reads one peer ID from the beginning of unread payload
func (p *Packet) ReadPeerID() common.PeerID {
	return common.PeerID(p.ReadUint16())
}

// AppendData appends one data of any type to the end of payload
func (p *Packet) AppendData(msg interface{}) {
	dataBytes, err := MSG_PACKER.PackMsg(msg, nil)
	if err != nil {
		gmlog.Panic(err)
	}

	p.AppendVarBytes(dataBytes)
}

// ReadData reads one data of any type from the beginning of unread payload
func (p *Packet) ReadData(msg interface{}) {
	b := p.ReadVarBytes()
	err := MSG_PACKER.UnpackMsg(b, msg)
	if err != nil {
		gmlog.Panic(err)
	}
}
