package netutil

import (
	"net"

	"github.com/xiaonanln/netconnutil"
)

// Connection is the basic connection type, which supports buffered writes
// that must be flushed explicitly
type Connection interface {
	netconnutil.FlushableConn
}

// NetConn converts a net.Conn to a Connection with no-op Flush
type NetConn struct {
	net.Conn
}

// Flush flushes the connection, which is a no-op for raw connections
func (n NetConn) Flush() error {
	return nil
}

// NewBufferedConnection wraps a network connection for packet exchange:
// temporary-error retries, optional snappy compression, then buffered IO.
func NewBufferedConnection(netconn net.Conn, compressed bool, readBufSize, writeBufSize int) Connection {
	netconn = netconnutil.NewNoTempErrorConn(netconn)
	var conn Connection = NetConn{netconn}
	if compressed {
		conn = netconnutil.NewSnappyConn(conn)
	}
	return netconnutil.NewBufferedConn(conn, readBufSize, writeBufSize)
}
