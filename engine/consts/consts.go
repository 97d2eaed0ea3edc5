package consts

import "time"

// Tunable Options
const (
	// For Underlying Networking
	// BUFFERED_READ_BUFFSIZE is the read buffer size for buffered connections
	BUFFERED_READ_BUFFSIZE = 16384
	// BUFFERED_WRITE_BUFFSIZE is the write buffer size for buffered connections
	BUFFERED_WRITE_BUFFSIZE = 16384

	// PEER_PROXY_WRITE_BUFFER_SIZE is the write buffer size for peer proxies
	PEER_PROXY_WRITE_BUFFER_SIZE = 1024 * 1024
	// PEER_PROXY_READ_BUFFER_SIZE is the read buffer size for peer proxies
	PEER_PROXY_READ_BUFFER_SIZE = 1024 * 1024
	// PEER_PROXY_SET_TCP_NO_DELAY = true sets peer proxies to TcpNoDelay
	PEER_PROXY_SET_TCP_NO_DELAY = true

	// For Session Service
	// SESSION_PACKET_QUEUE_SIZE is the max packet queue length for the session loop
	SESSION_PACKET_QUEUE_SIZE = 10000 // packet queue size
	// SESSION_TICK_INTERVAL is the tick interval of the session loop
	SESSION_TICK_INTERVAL = time.Millisecond * 10 // affects timer resolution

	// PEER_HELLO_TIMEOUT is the timeout for a connected peer to send its hello
	PEER_HELLO_TIMEOUT = time.Second * 30
)

// Debug Options
const (
	// DEBUG_PACKETS prints packet send/recv debug logs
	DEBUG_PACKETS = false
	// DEBUG_SPAWNS prints entity spawn/despawn debug logs
	DEBUG_SPAWNS = false
)
