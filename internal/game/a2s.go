package game

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/models"
)

// A2S verifies Source Engine servers with an A2S_INFO request over UDP.
type A2S struct {
	opts config.Probe
}

// NewA2S returns a Source Engine Query verifier.
func NewA2S(opts config.Probe) *A2S {
	return &A2S{opts: opts}
}

// Info connects to a game server via UDP and requests A2S_INFO.
func (q *A2S) Info(ctx context.Context, host string, port int) (*a2s.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := a2s.New(host, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = q.opts.BufferSize
	client.Timeout = q.opts.Timeout

	return client.GetInfo()
}

// Verify reports whether host:port answered A2S_INFO.
func (q *A2S) Verify(ctx context.Context, host string, port int) bool {
	if _, err := q.Info(ctx, host, port); err != nil {
		log.Trace().
			Err(err).
			Str("host", host).
			Int("port", port).
			Msg("A2S probe failed")
		return false
	}

	return true
}

// Query maps the A2S_INFO reply onto ServerInfo.
func (q *A2S) Query(ctx context.Context, host string, port int) (*models.ServerInfo, error) {
	info, err := q.Info(ctx, host, port)
	if err != nil {
		return nil, err
	}

	return &models.ServerInfo{
		Version: info.Version,
		MOTD:    info.Name,
		Map:     info.Map,
		Game:    info.Game,
		Online:  int(info.Players),
		Max:     int(info.MaxPlayers),
	}, nil
}
