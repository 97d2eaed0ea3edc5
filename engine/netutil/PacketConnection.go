package netutil

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
)

// PacketConnection exchanges Packets on a network stream connection.
//
// Frame format is the packet's own layout: a SIZE_FIELD_SIZE length field in
// network byte order followed by the payload.
type PacketConnection struct {
	conn Connection
}

// NewPacketConnection creates a packet connection based on the connection
func NewPacketConnection(conn Connection) *PacketConnection {
	return &PacketConnection{conn: conn}
}

// NewPacket allocates a new packet (usually for sending)
func (pc *PacketConnection) NewPacket() *Packet {
	return NewPacket()
}

// SendPacket sends the packet to the remote
func (pc *PacketConnection) SendPacket(packet *Packet) error {
	data := packet.data()
	written := 0
	for written < len(data) {
		n, err := pc.conn.Write(data[written:])
		written += n
		if err != nil && !IsTemporary(err) {
			return errors.Wrap(err, "send packet failed")
		}
	}
	return nil
}

// SendPacketRelease sends the packet and releases it
func (pc *PacketConnection) SendPacketRelease(packet *Packet) error {
	err := pc.SendPacket(packet)
	packet.Release()
	return err
}

// RecvPacket receives the next packet, blocking until one arrives.
// The caller is responsible for releasing the returned packet.
func (pc *PacketConnection) RecvPacket() (*Packet, error) {
	var sizeBuf [SIZE_FIELD_SIZE]byte
	if _, err := io.ReadFull(pc.conn, sizeBuf[:]); err != nil {
		return nil, errors.Wrap(err, "recv packet size failed")
	}

	payloadLen := NETWORK_ENDIAN.Uint32(sizeBuf[:])
	if payloadLen > MAX_PAYLOAD_LENGTH {
		return nil, errors.Errorf("recv packet payload too large: %d", payloadLen)
	}

	packet := NewPacket()
	packet.AssureCapacity(payloadLen)
	packet.SetPayloadLen(payloadLen)
	if _, err := io.ReadFull(pc.conn, packet.Payload()); err != nil {
		packet.Release()
		return nil, errors.Wrap(err, "recv packet payload failed")
	}
	return packet, nil
}

// SetRecvDeadline sets the deadline for the next RecvPacket
func (pc *PacketConnection) SetRecvDeadline(deadline time.Time) error {
	return pc.conn.SetReadDeadline(deadline)
}

// Flush flushes the underlying buffered connection
func (pc *PacketConnection) Flush() error {
	return pc.conn.Flush()
}

// Close closes the connection
func (pc *PacketConnection) Close() error {
	return pc.conn.Close()
}

// RemoteAddr returns the remote address
func (pc *PacketConnection) RemoteAddr() net.Addr {
	return pc.conn.RemoteAddr()
}

// LocalAddr returns the local address
func (pc *PacketConnection) LocalAddr() net.Addr {
	return pc.conn.LocalAddr()
}

func (pc *PacketConnection) String() string {
	return fmt.Sprintf("[%s >>> %s]", pc.LocalAddr(), pc.RemoteAddr())
}
