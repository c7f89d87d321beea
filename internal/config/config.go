// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/mcseek/internal/logger"
	"github.com/woozymasta/mcseek/internal/vars"
)

// Probe protocols understood by the verifier.
const (
	ProtocolSLP = "slp"
	ProtocolA2S = "a2s"
)

// Output formats understood by the report printer.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Target Target        `group:"Target Options" env-namespace:"MCSEEK"`
	Probe  Probe         `group:"Probe Options" namespace:"probe" env-namespace:"MCSEEK_PROBE"`
	Output Output        `group:"Output Options" namespace:"output" env-namespace:"MCSEEK_OUTPUT"`
	GeoIP  GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MCSEEK_GEOIP"`
	API    API           `group:"API Options" namespace:"api" env-namespace:"MCSEEK_API"`
	Logger logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MCSEEK_LOG"`

	FakeListen string `long:"fake-listen" hidden:"true"`
	Version    bool   `short:"v" long:"version" description:"Print version and build info"`
}

// Target describes where to look for the server.
type Target struct {
	// betteralign:ignore

	Host      string `short:"H" long:"host" env:"HOST" description:"Host to probe" default:"127.0.0.1"`
	Port      int    `short:"p" long:"port" env:"PORT" description:"Verify only this port"`
	Ports     string `short:"r" long:"ports" env:"PORTS" description:"Ports to scan: list and ranges, e.g. 25565,25570-25580" default:"1024-65535"`
	ProcName  string `long:"proc-name" env:"PROC_NAME" description:"Process name substring of candidate listeners" default:"java"`
	ProcArg   string `long:"proc-arg" env:"PROC_ARG" description:"Command line substring of candidate listeners" default:"minecraft"`
	ProcRoot  string `long:"proc-root" env:"PROC_ROOT" description:"procfs mount point" default:"/proc"`
	NoProcess bool   `long:"no-process" env:"NO_PROCESS" description:"Do not inspect local processes for candidates"`
	NoScan    bool   `long:"no-scan" env:"NO_SCAN" description:"Do not fall back to a port scan"`
}

// Probe holds status query configuration.
type Probe struct {
	// betteralign:ignore

	Protocol        string        `long:"protocol" env:"PROTOCOL" description:"Probe protocol" choice:"slp" choice:"a2s" default:"slp"`
	ProtocolVersion int           `long:"protocol-version" env:"PROTOCOL_VERSION" description:"Protocol version announced in the handshake" default:"767"`
	Timeout         time.Duration `long:"timeout" env:"TIMEOUT" description:"Per-connection timeout" default:"1s"`
	Workers         int           `short:"w" long:"workers" env:"WORKERS" description:"Concurrent probes during a scan" default:"128"`
	BufferSize      uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"A2S response buffer size" default:"1400"`
}

// Output holds report configuration.
type Output struct {
	Format string `short:"f" long:"format" env:"FORMAT" description:"Report format" choice:"text" choice:"json" choice:"yaml" default:"text"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `long:"path" env:"PATH" description:"Path to MMDB file, empty disables country lookup"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// API holds HTTP API configuration.
type API struct {
	// betteralign:ignore

	Serve          bool          `long:"serve" env:"SERVE" description:"Run the HTTP API instead of a one-shot discovery"`
	Address        string        `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"API listen address" default:":8080"`
	AuthToken      string        `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"API bearer token"`
	AllowedHosts   []string      `long:"allowed-host" env:"ALLOWED_HOSTS" description:"Hosts the API may probe" default:"127.0.0.1" default:"localhost" default:"::1" env-delim:","`
	MaxPorts       int           `long:"max-ports" env:"MAX_PORTS" description:"Max ports per scan request" default:"4096"`
	HardLimitCount int           `long:"rate-count" env:"RATE_COUNT" description:"Requests allowed per IP within the window" default:"30"`
	HardLimitWin   time.Duration `long:"rate-window" env:"RATE_WINDOW" description:"Rate limit window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

// ParseArgs parses args and validates the result without exiting the process.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.Version {
		return &cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target.Host) == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Target.Port < 0 || c.Target.Port > 65535 {
		return fmt.Errorf("port %d out of range 1..65535", c.Target.Port)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	if c.Probe.Workers < 1 {
		return fmt.Errorf("probe workers must be at least 1")
	}
	if c.API.Serve && c.API.AuthToken == "" {
		return fmt.Errorf("required flag `-t, --api-auth-token' or environment variable `MCSEEK_API_AUTH_TOKEN` was not specified")
	}

	return nil
}
