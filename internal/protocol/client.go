package protocol

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds both the connect and the whole exchange.
const DefaultTimeout = time.Second

// Client performs status queries.
type Client struct {
	// ProtocolVersion announced in the handshake.
	ProtocolVersion int

	// Timeout for connect and for the exchange that follows.
	Timeout time.Duration
}

// NewClient returns a Client, falling back to defaults for zero values.
func NewClient(protocolVersion int, timeout time.Duration) *Client {
	if protocolVersion == 0 {
		protocolVersion = DefaultProtocolVersion
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{ProtocolVersion: protocolVersion, Timeout: timeout}
}

// Query connects to host:port, performs the handshake and status request and returns
// the decoded status document. The connection is always closed before Query returns.
func (c *Client) Query(ctx context.Context, host string, port int) (*Status, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: c.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnError{Addr: addr, Err: err}
	}
	defer func() { _ = conn.Close() }()

	// unblock reads when the caller gives up
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return nil, &ConnError{Addr: addr, Err: err}
	}

	packet := append(BuildHandshake(host, uint16(port), c.ProtocolVersion), StatusRequest()...)
	if _, err := conn.Write(packet); err != nil {
		return nil, &ConnError{Addr: addr, Err: err}
	}

	return ReadStatusResponse(bufio.NewReader(conn))
}
