// main is the entry point of mcseek.
// It locates a running Minecraft server and prints a report, or serves the probe API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/discovery"
	"github.com/woozymasta/mcseek/internal/fake"
	"github.com/woozymasta/mcseek/internal/geoip"
	"github.com/woozymasta/mcseek/internal/logger"
	"github.com/woozymasta/mcseek/internal/report"
	"github.com/woozymasta/mcseek/internal/server"
)

func main() {
	cfg := config.Parse()
	logger.Setup(cfg.Logger)

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FakeListen != "" {
		runFake(ctx, cfg.FakeListen)
		return 0
	}

	geo := openGeoIP(ctx, cfg.GeoIP)
	if geo != nil {
		defer func() {
			if err := geo.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()
	}

	disc, err := discovery.FromConfig(cfg, geo)
	if err != nil {
		log.Error().Err(err).Msg("Invalid target configuration")
		return 2
	}

	if cfg.API.Serve {
		serve(ctx, disc, cfg)
		return 0
	}

	return discover(ctx, disc, cfg)
}

// discover runs a one-shot discovery and returns the process exit code.
func discover(ctx context.Context, disc *discovery.Discoverer, cfg *config.Config) int {
	log.Debug().Str("host", cfg.Target.Host).Msg("Looking for a Minecraft server")

	rep, err := disc.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Discovery interrupted")
		return 130
	}

	if err := report.Write(os.Stdout, rep, cfg.Output.Format); err != nil {
		log.Error().Err(err).Msg("Failed to write report")
		return 1
	}

	if !rep.Found {
		return 1
	}

	return 0
}

// openGeoIP refreshes and opens the country database, returning nil when disabled or unavailable.
func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	if cfg.Path == "" {
		return nil
	}

	log.Debug().Str("path", cfg.Path).Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	geo, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return geo
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, disc *discovery.Discoverer, cfg *config.Config) {
	srv := server.New(disc, cfg)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.API.Address,
		Handler:           srv.Run(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.API.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// runFake serves the built-in status responder until ctx is cancelled.
func runFake(ctx context.Context, addr string) {
	mc, err := fake.Listen(addr, fake.DefaultStatus)
	if err != nil {
		log.Fatal().Err(err).Str("address", addr).Msg("Failed to start fake responder")
	}

	log.Info().Str("address", mc.Addr().String()).Msg("Fake Minecraft responder listening")
	<-ctx.Done()

	if err := mc.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing fake responder")
	}
	log.Info().Int64("requests", mc.Requests()).Msg("Fake responder stopped")
}
