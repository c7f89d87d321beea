package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnsureDBDownloadsMissing(t *testing.T) {
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		_, _ = w.Write([]byte("mmdb"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "country.mmdb")
	if err := EnsureDB(context.Background(), path, srv.URL, time.Hour); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "mmdb" {
		t.Fatalf("unexpected file %q (%v)", data, err)
	}
	if agent := <-agents; agent == "" {
		t.Fatal("expected a User-Agent header")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temporary file must be renamed away")
	}
}

func TestEnsureDBKeepsFresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("fresh database must not be downloaded")
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "country.mmdb")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := EnsureDB(context.Background(), path, srv.URL, time.Hour); err != nil {
		t.Fatalf("ensure: %v", err)
	}
}

func TestEnsureDBBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "country.mmdb")
	if err := EnsureDB(context.Background(), path, srv.URL, time.Hour); err == nil {
		t.Fatal("expected error on 404")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no database must be written on failure")
	}
}

func TestCountryOfNilProvider(t *testing.T) {
	var p *Provider
	if got := p.CountryOf(context.Background(), "1.1.1.1"); got != "" {
		t.Fatalf("nil provider returned %q", got)
	}
}
