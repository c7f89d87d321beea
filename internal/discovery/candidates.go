package discovery

import (
	"context"
	"errors"
	"sync"

	"github.com/woozymasta/mcseek/internal/candidates"
	"github.com/woozymasta/mcseek/internal/game"
	"golang.org/x/sync/errgroup"
)

var errVerified = errors.New("candidate verified")

// VerifyCandidates verifies candidate ports with at most limit probes at once and returns
// the first candidate that verifies. Each port is probed once even when several
// processes report it.
func VerifyCandidates(ctx context.Context, v game.Verifier, host string, cands []candidates.Candidate, limit int) (candidates.Candidate, bool) {
	if len(cands) == 0 {
		return candidates.Candidate{}, false
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(limit, len(cands))))

	var (
		once   sync.Once
		winner candidates.Candidate
	)

	seen := make(map[int]struct{}, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.Port]; dup {
			continue
		}
		seen[c.Port] = struct{}{}

		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if !v.Verify(gctx, host, c.Port) {
				return nil
			}

			once.Do(func() { winner = c })
			return errVerified
		})
	}

	if err := g.Wait(); !errors.Is(err, errVerified) {
		return candidates.Candidate{}, false
	}

	return winner, true
}

// uniquePorts counts the distinct ports among cands.
func uniquePorts(cands []candidates.Candidate) int {
	seen := make(map[int]struct{}, len(cands))
	for _, c := range cands {
		seen[c.Port] = struct{}{}
	}

	return len(seen)
}
