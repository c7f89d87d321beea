// Package fake provides a minimal Minecraft status responder for tests and local development.
package fake

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcseek/internal/protocol"
	"github.com/woozymasta/mcseek/internal/varint"
)

// DefaultStatus is a status document shaped like a vanilla server reply.
const DefaultStatus = `{"version":{"name":"1.21","protocol":767},"players":{"max":20,"online":1,"sample":[{"name":"steve","id":"4566e69f-c907-48ee-8d71-d7ba5aa00d20"}]},"description":{"text":"A Minecraft Server"}}`

// Server answers every status request with a fixed document.
type Server struct {
	ln       net.Listener
	doc      []byte
	wg       sync.WaitGroup
	requests atomic.Int64
}

// Listen starts a responder on addr (use "127.0.0.1:0" for an ephemeral port).
func Listen(addr, doc string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{ln: ln, doc: []byte(doc)}
	s.wg.Add(1)
	go s.serve()

	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Port returns the listen port.
func (s *Server) Port() int {
	if tcp, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}

	return 0
}

// Requests returns how many status requests were received.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Close stops accepting and waits for the accept loop to exit.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()

	return err
}

func (s *Server) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debug().Err(err).Msg("Fake responder accept failed")
			}
			return
		}

		go func() {
			defer func() { _ = conn.Close() }()
			if err := s.handle(conn); err != nil {
				log.Trace().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("Fake responder dropped connection")
			}
		}()
	}
}

// handle reads the handshake and status request frames and writes the status response.
func (s *Server) handle(conn net.Conn) error {
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	for _, name := range []string{"handshake", "status request"} {
		size, err := varint.Decode(r)
		if err != nil {
			return fmt.Errorf("%s length: %w", name, err)
		}
		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			return fmt.Errorf("%s body: %w", name, err)
		}
	}

	s.requests.Add(1)
	_, err := conn.Write(protocol.BuildStatusResponse(s.doc))

	return err
}
