package netutil

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"
)

const (
	// MAX_PACKET_SIZE is the max size of a packet on the wire
	MAX_PACKET_SIZE = 1 * 1024 * 1024
	// SIZE_FIELD_SIZE is the size of the packet size field
	SIZE_FIELD_SIZE = 4
	// PREPAYLOAD_SIZE is the size of the packet bytes before the payload
	PREPAYLOAD_SIZE = SIZE_FIELD_SIZE
	// MAX_PAYLOAD_LENGTH is the max size of the packet payload
	MAX_PAYLOAD_LENGTH = MAX_PACKET_SIZE - PREPAYLOAD_SIZE
)

// NETWORK_ENDIAN is the byte order used on the wire
var NETWORK_ENDIAN = binary.LittleEndian

// IsConnectionError checks if the error is a connection error (close)
func IsConnectionError(_err interface{}) bool {
	err, ok := _err.(error)
	if !ok {
		return false
	}

	err = errors.Cause(err)
	if err == io.EOF {
		return true
	}

	neterr, ok := err.(net.Error)
	if !ok {
		return false
	}
	if neterr.Timeout() {
		return false
	}

	return true
}

// IsTemporary checks if the error is a temporary network error
func IsTemporary(err error) bool {
	neterr, ok := errors.Cause(err).(net.Error)
	return ok && neterr.Timeout()
}

// ConnectTCP connects to the server at addr in TCP
func ConnectTCP(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	return conn, err
}
