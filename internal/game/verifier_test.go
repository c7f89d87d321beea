package game

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/fake"
)

func probeOptions() config.Probe {
	return config.Probe{
		Protocol:        config.ProtocolSLP,
		ProtocolVersion: 767,
		Timeout:         500 * time.Millisecond,
		Workers:         4,
		BufferSize:      1400,
	}
}

func startFake(t *testing.T, doc string) *fake.Server {
	t.Helper()

	srv, err := fake.Listen("127.0.0.1:0", doc)
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	return srv
}

func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	return port
}

func TestVerifyValidDocument(t *testing.T) {
	srv := startFake(t, `{"description":"x","players":{}}`)

	if !Verify(context.Background(), "127.0.0.1", srv.Port(), probeOptions()) {
		t.Fatal("expected verify to succeed")
	}
}

func TestVerifyMissingPlayers(t *testing.T) {
	srv := startFake(t, `{"description":"x"}`)

	if Verify(context.Background(), "127.0.0.1", srv.Port(), probeOptions()) {
		t.Fatal("document without players must not verify")
	}
}

func TestVerifyRefused(t *testing.T) {
	if Verify(context.Background(), "127.0.0.1", closedPort(t), probeOptions()) {
		t.Fatal("refused connection must not verify")
	}
}

func TestVerifySilentService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer func() { _ = ln.Close() }()

	// accepts and never answers, like an unrelated service waiting for its own protocol
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer func() { _ = conn.Close() }()
		}
	}()

	opts := probeOptions()
	opts.Timeout = 200 * time.Millisecond

	start := time.Now()
	if Verify(context.Background(), "127.0.0.1", ln.Addr().(*net.TCPAddr).Port, opts) {
		t.Fatal("silent service must not verify")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("verify took %v, timeout not applied", elapsed)
	}
}

func TestVerifyGarbageService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer func() { _ = ln.Close() }()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_, _ = conn.Write([]byte("SSH-2.0-OpenSSH_9.6\r\n"))
			_ = conn.Close()
		}
	}()

	if Verify(context.Background(), "127.0.0.1", ln.Addr().(*net.TCPAddr).Port, probeOptions()) {
		t.Fatal("non-minecraft banner must not verify")
	}
}

func TestQueryServerSummary(t *testing.T) {
	srv := startFake(t, fake.DefaultStatus)

	info, err := QueryServer(context.Background(), "127.0.0.1", srv.Port(), probeOptions())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if info.Version != "1.21" || info.Online != 1 || info.Max != 20 || info.MOTD != "A Minecraft Server" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestNewVerifierSelectsProtocol(t *testing.T) {
	opts := probeOptions()
	if _, ok := NewVerifier(opts).(*SLP); !ok {
		t.Fatal("expected SLP verifier by default")
	}

	opts.Protocol = config.ProtocolA2S
	if _, ok := NewVerifier(opts).(*A2S); !ok {
		t.Fatal("expected A2S verifier")
	}
}

func TestA2SCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := probeOptions()
	opts.Protocol = config.ProtocolA2S
	if Verify(ctx, "127.0.0.1", 27016, opts) {
		t.Fatal("cancelled context must not verify")
	}
}

// startA2S answers every A2S_INFO request with a fixed Source info reply.
func startA2S(t *testing.T) int {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	reply := []byte{0xff, 0xff, 0xff, 0xff, 0x49, 17}
	for _, s := range []string{"Test Server", "de_dust2", "cstrike", "Counter-Strike"} {
		reply = append(reply, s...)
		reply = append(reply, 0x00)
	}
	reply = append(reply, 0x0a, 0x00) // app id 10, little endian
	reply = append(reply,
		3,   // players
		16,  // max players
		0,   // bots
		'd', // dedicated
		'l', // linux
		0,   // public
		1,   // vac
	)
	reply = append(reply, "1.0.0.0"...)
	reply = append(reply, 0x00, 0x00) // version terminator, no extra data

	go func() {
		buf := make([]byte, 1400)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if n < 5 || buf[4] != 0x54 {
				continue
			}
			_, _ = conn.WriteTo(reply, addr)
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestA2SVerifyAndQuery(t *testing.T) {
	port := startA2S(t)

	opts := probeOptions()
	opts.Protocol = config.ProtocolA2S

	if !Verify(context.Background(), "127.0.0.1", port, opts) {
		t.Fatal("expected A2S verify to succeed")
	}

	info, err := QueryServer(context.Background(), "127.0.0.1", port, opts)
	if err != nil {
		t.Fatal(err)
	}
	if info.MOTD != "Test Server" || info.Map != "de_dust2" || info.Game != "Counter-Strike" {
		t.Fatalf("unexpected names %+v", info)
	}
	if info.Online != 3 || info.Max != 16 || info.Version != "1.0.0.0" {
		t.Fatalf("unexpected counts %+v", info)
	}
}

func TestA2SSilentPort(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer func() { _ = conn.Close() }()

	opts := probeOptions()
	opts.Protocol = config.ProtocolA2S
	opts.Timeout = 200 * time.Millisecond

	if Verify(context.Background(), "127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port, opts) {
		t.Fatal("silent UDP port must not verify")
	}
}
