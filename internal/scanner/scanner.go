// Package scanner applies a verifier across candidate ports with a bounded worker pool
// and stops once any worker confirms a match.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcseek/internal/game"
)

// Result is the outcome of one scan.
type Result struct {
	// Port is the verified port, valid only when Found is set.
	Port int

	// Found reports whether any candidate verified.
	Found bool

	// Attempts counts verifications that were started.
	Attempts int64

	// Skipped counts candidates dropped after a match or cancellation.
	Skipped int64

	// Duration is the wall time of the scan.
	Duration time.Duration
}

// Scanner runs a Verifier over candidate ports.
type Scanner struct {
	verifier game.Verifier
	workers  int
}

// New returns a Scanner running at most workers verifications at once.
func New(v game.Verifier, workers int) *Scanner {
	if workers < 1 {
		workers = 1
	}

	return &Scanner{verifier: v, workers: workers}
}

// signal is the per-scan stop flag. It only ever goes from unset to set.
type signal struct {
	set atomic.Bool
}

// Fire sets the flag and reports whether this call was the one that set it.
func (s *signal) Fire() bool {
	return s.set.CompareAndSwap(false, true)
}

// IsSet reports whether the flag has been set.
func (s *signal) IsSet() bool {
	return s.set.Load()
}

// Scan verifies ports on host and returns the first port whose verification completes
// successfully. Completion order decides, not port order. Verifications already running
// when a match is found are not interrupted; Scan waits for them so no socket outlives it.
// A cancelled ctx before any match yields ctx.Err().
func (s *Scanner) Scan(ctx context.Context, host string, ports []int) (Result, error) {
	start := time.Now()
	if len(ports) == 0 {
		return Result{Duration: time.Since(start)}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		stop     signal
		wg       sync.WaitGroup
		winner   atomic.Int64
		attempts atomic.Int64
		skipped  atomic.Int64
	)

	pool, err := ants.NewPoolWithFunc(min(s.workers, len(ports)), func(arg any) {
		defer wg.Done()

		port := arg.(int)
		if stop.IsSet() || ctx.Err() != nil {
			skipped.Add(1)
			return
		}

		attempts.Add(1)
		if !s.verifier.Verify(ctx, host, port) {
			return
		}

		if stop.Fire() {
			winner.Store(int64(port))
			log.Debug().
				Str("host", host).
				Int("port", port).
				Msg("Scan matched")
		}
	})
	if err != nil {
		return Result{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	dispatched := 0
	for _, port := range ports {
		if stop.IsSet() || ctx.Err() != nil {
			break
		}

		wg.Add(1)
		if err := pool.Invoke(port); err != nil {
			wg.Done()
			wg.Wait()
			return Result{}, fmt.Errorf("dispatch port %d: %w", port, err)
		}
		dispatched++
	}
	wg.Wait()

	res := Result{
		Attempts: attempts.Load(),
		Skipped:  skipped.Load() + int64(len(ports)-dispatched),
		Duration: time.Since(start),
	}

	if stop.IsSet() {
		res.Found = true
		res.Port = int(winner.Load())
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	return res, nil
}
