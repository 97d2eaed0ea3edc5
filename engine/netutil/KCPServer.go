package netutil

import (
	"net"

	kcp "github.com/xtaci/kcp-go"

	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/gmutils"
)

// ServeKCPForever serves on specified address as KCP (reliable UDP) server
func ServeKCPForever(listenAddr string, delegate TCPServerDelegate, readBufSize, writeBufSize int) {
	kcpListener, err := kcp.ListenWithOptions(listenAddr, nil, 10, 3)
	if err != nil {
		gmlog.Panic(err)
	}

	gmlog.Infof("Listening on KCP: %s ...", listenAddr)

	gmutils.RepeatUntilPanicless(func() {
		for {
			conn, err := kcpListener.AcceptKCP()
			if err != nil {
				gmlog.Panic(err)
			}
			setupKCPConn(conn, readBufSize, writeBufSize)
			gmlog.Infof("KCP connection from %s", conn.RemoteAddr())
			go delegate.ServeTCPConnection(conn)
		}
	})
}

// ConnectKCP connects to the KCP server at addr
func ConnectKCP(addr string, readBufSize, writeBufSize int) (net.Conn, error) {
	conn, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, err
	}
	setupKCPConn(conn, readBufSize, writeBufSize)
	return conn, nil
}

func setupKCPConn(conn *kcp.UDPSession, readBufSize, writeBufSize int) {
	conn.SetReadBuffer(readBufSize)
	conn.SetWriteBuffer(writeBufSize)
	// turbo mode, see https://github.com/skywind3000/kcp/blob/master/README.en.md#protocol-configuration
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 10, 2, 1)
}
