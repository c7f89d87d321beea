package scanner

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/fake"
	"github.com/woozymasta/mcseek/internal/game"
	"github.com/woozymasta/mcseek/internal/portlist"
)

// stubVerifier matches a fixed set of ports after an optional delay.
type stubVerifier struct {
	match    map[int]bool
	delay    time.Duration
	calls    atomic.Int64
	late     atomic.Int64
	matched  atomic.Bool
	inflight atomic.Int64
	peak     atomic.Int64
}

func (v *stubVerifier) Verify(ctx context.Context, _ string, port int) bool {
	v.calls.Add(1)
	if v.matched.Load() {
		v.late.Add(1)
	}

	n := v.inflight.Add(1)
	defer v.inflight.Add(-1)
	for {
		peak := v.peak.Load()
		if n <= peak || v.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-time.After(v.delay):
	case <-ctx.Done():
		return false
	}

	if v.match[port] {
		v.matched.Store(true)
		return true
	}

	return false
}

func TestScanEmpty(t *testing.T) {
	v := &stubVerifier{}
	res, err := New(v, 4).Scan(context.Background(), "127.0.0.1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || v.calls.Load() != 0 {
		t.Fatalf("empty scan must not probe, got %+v", res)
	}
	if res.Duration < 0 || res.Duration > time.Second {
		t.Fatalf("unexpected duration %v", res.Duration)
	}
}

func TestScanNotFound(t *testing.T) {
	v := &stubVerifier{delay: time.Millisecond}
	ports := portlist.Range(1000, 1049)

	res, err := New(v, 8).Scan(context.Background(), "127.0.0.1", ports)
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Fatalf("expected not found, got port %d", res.Port)
	}
	if res.Attempts != int64(len(ports)) || res.Skipped != 0 {
		t.Fatalf("expected every port probed once, got %+v", res)
	}
	if res.Duration < time.Millisecond {
		t.Fatalf("duration %v shorter than a single probe", res.Duration)
	}
}

func TestScanWorkerBound(t *testing.T) {
	v := &stubVerifier{delay: 5 * time.Millisecond}

	if _, err := New(v, 3).Scan(context.Background(), "127.0.0.1", portlist.Range(1, 40)); err != nil {
		t.Fatal(err)
	}
	if peak := v.peak.Load(); peak > 3 {
		t.Fatalf("observed %d concurrent verifications with 3 workers", peak)
	}
}

func TestScanCancellationBound(t *testing.T) {
	const workers = 4
	v := &stubVerifier{
		delay: 10 * time.Millisecond,
		match: map[int]bool{1005: true},
	}

	res, err := New(v, workers).Scan(context.Background(), "127.0.0.1", portlist.Range(1000, 1999))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Port != 1005 {
		t.Fatalf("expected port 1005, got %+v", res)
	}
	if late := v.late.Load(); late > workers {
		t.Fatalf("%d attempts started after the match, bound is %d", late, workers)
	}
	if res.Skipped == 0 || res.Attempts+res.Skipped != 1000 {
		t.Fatalf("attempts and skipped must cover all ports, got %+v", res)
	}
}

func TestScanConcurrencyAboveCandidates(t *testing.T) {
	v := &stubVerifier{match: map[int]bool{7: true, 9: true}}

	res, err := New(v, 100).Scan(context.Background(), "127.0.0.1", []int{5, 6, 7, 8, 9})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || (res.Port != 7 && res.Port != 9) {
		t.Fatalf("expected one of the matching ports, got %+v", res)
	}
}

func TestScanCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&stubVerifier{}, 2).Scan(ctx, "127.0.0.1", []int{1, 2, 3})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScanCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	v := &stubVerifier{delay: 20 * time.Millisecond}
	res, err := New(v, 2).Scan(ctx, "127.0.0.1", portlist.Range(1, 500))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if res.Skipped == 0 {
		t.Fatalf("expected remaining ports to be skipped, got %+v", res)
	}
}

func TestScanLiveRange(t *testing.T) {
	const target = 56109

	srv, err := fake.Listen(net.JoinHostPort("127.0.0.1", "56109"), `{"description":"x","players":{}}`)
	if err != nil {
		t.Skipf("cannot listen on port %d: %v", target, err)
	}
	defer func() { _ = srv.Close() }()

	v := game.NewVerifier(config.Probe{
		Protocol:        config.ProtocolSLP,
		ProtocolVersion: 759,
		Timeout:         time.Second,
	})

	res, err := New(v, 4).Scan(context.Background(), "127.0.0.1", portlist.Range(56100, 56110))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Port != target {
		t.Fatalf("expected %d, got %+v", target, res)
	}
}

func TestScanLiveNoResponder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	v := game.NewVerifier(config.Probe{Protocol: config.ProtocolSLP, Timeout: 300 * time.Millisecond})

	res, err := New(v, 2).Scan(context.Background(), "127.0.0.1", []int{port})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Fatalf("expected not found, got %+v", res)
	}
}
