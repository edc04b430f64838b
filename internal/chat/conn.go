package chat

// Conn is the transport half of a connection as the core sees it. The
// production implementation is Client (gorilla websocket); tests substitute a
// recording fake.
type Conn interface {
	// Send enqueues an outbound frame. It reports false when the
	// connection is closed or its buffer is full; deliveries are
	// best-effort and a false return is never retried.
	Send(data []byte) bool
	Close()
	RemoteAddr() string
}
