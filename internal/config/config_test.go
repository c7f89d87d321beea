package config

import (
	"testing"
	"time"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Target.Host != "127.0.0.1" {
		t.Fatalf("host = %q", cfg.Target.Host)
	}
	if cfg.Target.Ports != "1024-65535" {
		t.Fatalf("ports = %q", cfg.Target.Ports)
	}
	if cfg.Probe.Protocol != ProtocolSLP || cfg.Probe.ProtocolVersion != 767 {
		t.Fatalf("unexpected probe defaults %+v", cfg.Probe)
	}
	if cfg.Probe.Timeout != time.Second || cfg.Probe.Workers != 128 {
		t.Fatalf("unexpected probe defaults %+v", cfg.Probe)
	}
	if cfg.Output.Format != FormatText {
		t.Fatalf("format = %q", cfg.Output.Format)
	}
	if len(cfg.API.AllowedHosts) != 3 {
		t.Fatalf("allowed hosts = %v", cfg.API.AllowedHosts)
	}
}

func TestParseArgsOverrides(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--host", "10.0.0.5",
		"-r", "25565-25570",
		"--probe-protocol", "a2s",
		"--probe-timeout", "250ms",
		"-w", "8",
		"-f", "json",
		"--no-process",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Target.Host != "10.0.0.5" || cfg.Target.Ports != "25565-25570" || !cfg.Target.NoProcess {
		t.Fatalf("unexpected target %+v", cfg.Target)
	}
	if cfg.Probe.Protocol != ProtocolA2S || cfg.Probe.Timeout != 250*time.Millisecond || cfg.Probe.Workers != 8 {
		t.Fatalf("unexpected probe %+v", cfg.Probe)
	}
	if cfg.Output.Format != FormatJSON {
		t.Fatalf("format = %q", cfg.Output.Format)
	}
}

func TestParseArgsInvalid(t *testing.T) {
	cases := map[string][]string{
		"serve without token": {"--api-serve"},
		"zero workers":        {"-w", "0"},
		"port out of range":   {"-p", "70000"},
		"unknown protocol":    {"--probe-protocol", "gopher"},
		"unknown format":      {"-f", "xml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseArgs(args); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
}

func TestParseArgsServeWithToken(t *testing.T) {
	cfg, err := ParseArgs([]string{"--api-serve", "-t", "secret"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.API.Serve || cfg.API.AuthToken != "secret" {
		t.Fatalf("unexpected api %+v", cfg.API)
	}
}
