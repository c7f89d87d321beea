package server

import (
	"time"

	"github.com/woozymasta/mcseek/internal/discovery"
)

// Server holds the dependencies and configuration required to answer probe requests.
type Server struct {
	// disc runs verifications, scans and local discovery.
	disc *discovery.Discoverer

	// allowedHosts is a set of hashed host names (using xxhash) the API is allowed to probe.
	// Keeps the service from being used to scan arbitrary networks.
	allowedHosts map[uint64]struct{}

	// shutdown stops background housekeeping goroutines.
	shutdown chan struct{}

	// authToken is the bearer token required on every /api endpoint.
	authToken string

	// defaultHost is probed when a request does not name a host.
	defaultHost string

	// maxPorts caps the number of ports a single scan request may expand to.
	maxPorts int

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the rate limiter.
	hardLimitWin time.Duration
}
