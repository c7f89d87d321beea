// Package discovery locates the port of a live game server: it verifies process-derived
// candidates first and falls back to scanning a port range.
package discovery

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcseek/internal/candidates"
	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/game"
	"github.com/woozymasta/mcseek/internal/geoip"
	"github.com/woozymasta/mcseek/internal/models"
	"github.com/woozymasta/mcseek/internal/portlist"
	"github.com/woozymasta/mcseek/internal/scanner"
)

// Supplier lists candidate listeners.
type Supplier interface {
	Candidates() ([]candidates.Candidate, error)
}

// Options control a discovery run.
type Options struct {
	Host     string
	Protocol string
	Ports    []int
	Port     int
	Workers  int

	// NoScan disables the range scan fallback.
	NoScan bool
}

// Discoverer runs discovery with a fixed verifier, supplier and options.
type Discoverer struct {
	verifier game.Querier
	supplier Supplier
	geo      *geoip.Provider
	opts     Options
}

// New returns a Discoverer. A nil supplier disables process inspection, a nil geo
// disables country lookup.
func New(v game.Querier, sup Supplier, geo *geoip.Provider, opts Options) *Discoverer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Discoverer{verifier: v, supplier: sup, geo: geo, opts: opts}
}

// FromConfig builds a Discoverer from application configuration.
func FromConfig(cfg *config.Config, geo *geoip.Provider) (*Discoverer, error) {
	opts := Options{
		Host:     cfg.Target.Host,
		Protocol: cfg.Probe.Protocol,
		Port:     cfg.Target.Port,
		Workers:  cfg.Probe.Workers,
		NoScan:   cfg.Target.NoScan,
	}

	if !cfg.Target.NoScan && cfg.Target.Port == 0 {
		ports, err := portlist.Parse(cfg.Target.Ports)
		if err != nil {
			return nil, err
		}
		opts.Ports = ports
	}

	var sup Supplier
	if !cfg.Target.NoProcess {
		sup = candidates.New(cfg.Target.ProcRoot, cfg.Target.ProcName, cfg.Target.ProcArg)
	}

	return New(game.NewVerifier(cfg.Probe), sup, geo, opts), nil
}

// Run performs discovery on the configured host. Not finding a server is a normal
// report with Found unset; only caller cancellation is returned as an error.
func (d *Discoverer) Run(ctx context.Context) (models.Report, error) {
	rep := d.newReport(d.opts.Host)
	counter := &countingVerifier{Verifier: d.verifier}

	switch {
	case d.opts.Port > 0:
		rep.Candidates = 1
		if counter.Verify(ctx, d.opts.Host, d.opts.Port) {
			rep.Found, rep.Port, rep.Source = true, d.opts.Port, models.SourceDirect
		}

	default:
		d.fromProcesses(ctx, counter, &rep)
		if !rep.Found && !d.opts.NoScan && ctx.Err() == nil {
			rep.Candidates += len(d.opts.Ports)
			res, err := scanner.New(counter, d.opts.Workers).Scan(ctx, d.opts.Host, d.opts.Ports)
			if err != nil {
				rep.Attempts = counter.n.Load()
				return rep, err
			}
			if res.Found {
				rep.Found, rep.Port, rep.Source = true, res.Port, models.SourceScan
			}
		}
	}

	rep.Attempts = counter.n.Load()
	if err := ctx.Err(); err != nil && !rep.Found {
		return rep, err
	}

	d.finish(ctx, &rep)
	return rep, nil
}

// Scan runs only the range scan against host.
func (d *Discoverer) Scan(ctx context.Context, host string, ports []int) (models.Report, error) {
	rep := d.newReport(host)
	rep.Candidates = len(ports)

	res, err := scanner.New(d.verifier, d.opts.Workers).Scan(ctx, host, ports)
	rep.Attempts = res.Attempts
	if err != nil {
		return rep, err
	}
	if res.Found {
		rep.Found, rep.Port, rep.Source = true, res.Port, models.SourceScan
	}

	d.finish(ctx, &rep)
	return rep, nil
}

// Verify reports whether host:port runs the expected server.
func (d *Discoverer) Verify(ctx context.Context, host string, port int) bool {
	return d.verifier.Verify(ctx, host, port)
}

// Query returns what host:port reports about itself.
func (d *Discoverer) Query(ctx context.Context, host string, port int) (*models.ServerInfo, error) {
	return d.verifier.Query(ctx, host, port)
}

func (d *Discoverer) newReport(host string) models.Report {
	return models.Report{
		Started:  time.Now(),
		Host:     host,
		Protocol: d.opts.Protocol,
	}
}

// fromProcesses verifies ports of matching local processes.
func (d *Discoverer) fromProcesses(ctx context.Context, v game.Verifier, rep *models.Report) {
	if d.supplier == nil {
		return
	}
	if !isLocal(d.opts.Host) {
		log.Debug().Str("host", d.opts.Host).Msg("Skipping process candidates for remote host")
		return
	}

	cands, err := d.supplier.Candidates()
	if err != nil {
		if errors.Is(err, candidates.ErrUnsupported) {
			log.Debug().Err(err).Msg("Process inspection unavailable")
		} else {
			log.Warn().Err(err).Msg("Failed to list process candidates")
		}
		return
	}

	unique := uniquePorts(cands)
	rep.Candidates += unique
	log.Debug().Int("count", len(cands)).Int("ports", unique).Msg("Process candidates found")

	if c, ok := VerifyCandidates(ctx, v, d.opts.Host, cands, d.opts.Workers); ok {
		rep.Found, rep.Port, rep.PID, rep.Source = true, c.Port, c.PID, models.SourceProcess
		return
	}

	if unique > 0 {
		log.Info().Int("ports", unique).Msg("No process candidate answered the status query")
	}
}

// finish enriches a positive report and stamps the duration.
func (d *Discoverer) finish(ctx context.Context, rep *models.Report) {
	if rep.Found {
		info, err := d.verifier.Query(ctx, rep.Host, rep.Port)
		if err != nil {
			log.Debug().Err(err).Int("port", rep.Port).Msg("Status enrichment failed")
		} else {
			rep.Server = info
		}
		rep.CountryCode = d.geo.CountryOf(ctx, rep.Host)
	}

	rep.Duration = time.Since(rep.Started)
}

// countingVerifier counts started verifications.
type countingVerifier struct {
	game.Verifier
	n atomic.Int64
}

func (c *countingVerifier) Verify(ctx context.Context, host string, port int) bool {
	c.n.Add(1)
	return c.Verifier.Verify(ctx, host, port)
}

// isLocal reports whether host names this machine.
func isLocal(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}
