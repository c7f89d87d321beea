package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcseek/internal/portlist"
	"github.com/woozymasta/mcseek/internal/vars"
)

// errHostNotAllowed is returned for hosts outside the allow list.
var errHostNotAllowed = errors.New("host is not allowed")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// target reads the host query parameter, falling back to the configured host.
func (s *Server) target(r *http.Request) (string, error) {
	host := r.URL.Query().Get("host")
	if host == "" {
		host = s.defaultHost
	}
	if !s.hostAllowed(host) {
		return "", errHostNotAllowed
	}

	return host, nil
}

// targetPort reads the host and port query parameters.
func (s *Server) targetPort(r *http.Request) (string, int, error) {
	host, err := s.target(r)
	if err != nil {
		return "", 0, err
	}

	port, err := strconv.Atoi(r.URL.Query().Get("port"))
	if err != nil || port < 1 || port > 65535 {
		return "", 0, errors.New("invalid port")
	}

	return host, port, nil
}

func statusFor(err error) int {
	if errors.Is(err, errHostNotAllowed) {
		return http.StatusForbidden
	}

	return http.StatusBadRequest
}

// handleStatus performs a live status query and returns what the server reports.
// Query params: ?host=127.0.0.1&port=25565
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	host, port, err := s.targetPort(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	info, err := s.disc.Query(r.Context(), host, port)
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// handleVerify reports whether a port runs a live server.
// Query params: ?host=127.0.0.1&port=25565
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	host, port, err := s.targetPort(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"host":     host,
		"port":     port,
		"verified": s.disc.Verify(r.Context(), host, port),
	})
}

// handleScan scans a port specification and returns the discovery report.
// Query params: ?host=127.0.0.1&ports=25565-25600
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	host, err := s.target(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	ports, err := portlist.Parse(r.URL.Query().Get("ports"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.maxPorts > 0 && len(ports) > s.maxPorts {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("too many ports requested"))
		return
	}

	rep, err := s.disc.Scan(r.Context(), host, ports)
	if err != nil {
		log.Debug().Err(err).Str("host", host).Msg("Scan aborted")
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleDiscover runs the configured local discovery.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	rep, err := s.disc.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}
