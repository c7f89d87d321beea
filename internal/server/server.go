// Package server implements the HTTP API exposing status queries, port verification and scans.
package server

import (
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/discovery"
)

// New creates a new Server instance with the provided discoverer and configuration.
func New(disc *discovery.Discoverer, cfg *config.Config) *Server {
	hosts := make(map[uint64]struct{})
	for _, h := range cfg.API.AllowedHosts {
		hosts[hostKey(h)] = struct{}{}
	}

	return &Server{
		disc:           disc,
		allowedHosts:   hosts,
		authToken:      cfg.API.AuthToken,
		defaultHost:    cfg.Target.Host,
		maxPorts:       cfg.API.MaxPorts,
		hardLimitCount: cfg.API.HardLimitCount,
		hardLimitWin:   cfg.API.HardLimitWin,
		shutdown:       make(chan struct{}),
	}
}

// Close stops background housekeeping.
func (s *Server) Close() {
	close(s.shutdown)
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	auth := func(h http.HandlerFunc) http.Handler {
		return AdminAuthMiddleware(s.authToken, h)
	}

	mux.Handle("GET /api/status", auth(s.handleStatus))
	mux.Handle("GET /api/verify", auth(s.handleVerify))
	mux.Handle("GET /api/scan", auth(s.handleScan))
	mux.Handle("GET /api/discover", auth(s.handleDiscover))
	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))

	return s.LoggingMiddleware(s.RateLimitMiddleware(mux))
}

// hostAllowed reports whether host is in the probe allow list.
func (s *Server) hostAllowed(host string) bool {
	if len(s.allowedHosts) == 0 {
		return true
	}

	_, ok := s.allowedHosts[hostKey(host)]
	return ok
}

func hostKey(host string) uint64 {
	return xxhash.Sum64String(strings.ToLower(strings.TrimSpace(host)))
}
