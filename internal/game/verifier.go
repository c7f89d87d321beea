// Package game verifies that a port runs a live game server by querying it over the wire.
package game

import (
	"context"

	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/models"
)

// Verifier answers whether host:port runs the expected game server.
// Implementations never return errors: every failure means "no".
type Verifier interface {
	Verify(ctx context.Context, host string, port int) bool
}

// Querier is a Verifier that can also report what the server said about itself.
type Querier interface {
	Verifier
	Query(ctx context.Context, host string, port int) (*models.ServerInfo, error)
}

// NewVerifier returns the verifier selected by opts.Protocol.
func NewVerifier(opts config.Probe) Querier {
	if opts.Protocol == config.ProtocolA2S {
		return NewA2S(opts)
	}

	return NewSLP(opts)
}

// Verify runs a single verification with the verifier selected by opts.
func Verify(ctx context.Context, host string, port int, opts config.Probe) bool {
	return NewVerifier(opts).Verify(ctx, host, port)
}

// QueryServer queries host:port with the verifier selected by opts.
func QueryServer(ctx context.Context, host string, port int, opts config.Probe) (*models.ServerInfo, error) {
	return NewVerifier(opts).Query(ctx, host, port)
}
