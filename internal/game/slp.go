package game

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/models"
	"github.com/woozymasta/mcseek/internal/protocol"
)

// SLP verifies Minecraft Java servers with the status handshake.
type SLP struct {
	client *protocol.Client
}

// NewSLP returns a status-handshake verifier.
func NewSLP(opts config.Probe) *SLP {
	return &SLP{client: protocol.NewClient(opts.ProtocolVersion, opts.Timeout)}
}

// Status performs the exchange and validates the document.
func (s *SLP) Status(ctx context.Context, host string, port int) (*protocol.Status, error) {
	st, err := s.client.Query(ctx, host, port)
	if err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	return st, nil
}

// Verify reports whether host:port answered with a valid status document.
func (s *SLP) Verify(ctx context.Context, host string, port int) bool {
	if _, err := s.Status(ctx, host, port); err != nil {
		log.Trace().
			Err(err).
			Str("host", host).
			Int("port", port).
			Msg("Status probe failed")
		return false
	}

	log.Debug().
		Str("host", host).
		Int("port", port).
		Msg("Status probe verified")

	return true
}

// Query returns the summary of a valid status document.
func (s *SLP) Query(ctx context.Context, host string, port int) (*models.ServerInfo, error) {
	st, err := s.Status(ctx, host, port)
	if err != nil {
		return nil, err
	}

	sum := st.Summary()
	return &models.ServerInfo{
		Version:  sum.Version,
		Protocol: sum.Protocol,
		MOTD:     sum.MOTD,
		Online:   sum.Online,
		Max:      sum.Max,
	}, nil
}
