// Package report renders discovery reports as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/woozymasta/mcseek/internal/config"
	"github.com/woozymasta/mcseek/internal/models"
	"gopkg.in/yaml.v3"
)

// Write renders rep to w in the given format.
func Write(w io.Writer, rep models.Report, format string) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)

	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()

	case config.FormatText, "":
		return writeText(w, rep)

	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

type palette struct {
	found  *color.Color
	banner *color.Color
	label  *color.Color
	muted  *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		found:  color.New(color.FgGreen, color.Bold),
		banner: color.New(color.BgRed, color.FgYellow),
		label:  color.New(color.FgCyan),
		muted:  color.New(color.FgHiBlack),
	}

	if !isTerminal(w) {
		for _, c := range []*color.Color{p.found, p.banner, p.label, p.muted} {
			c.DisableColor()
		}
	}

	return p
}

func writeText(w io.Writer, rep models.Report) error {
	p := newPalette(w)
	kind := serverKind(rep.Protocol)

	if !rep.Found {
		msg := fmt.Sprintf("*** %s not found on %s. Make sure the server is running. ***", kind, rep.Host)
		line := strings.Repeat("*", len(msg))
		for _, s := range []string{line, msg, line} {
			if _, err := p.banner.Fprint(w, s); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		_, err := p.muted.Fprintf(w, "checked %d candidates with %d probes in %s\n",
			rep.Candidates, rep.Attempts, rep.Duration.Round(time.Millisecond))
		return err
	}

	addr := net.JoinHostPort(rep.Host, strconv.Itoa(rep.Port))
	if _, err := p.found.Fprintf(w, "%s found on %s", kind, addr); err != nil {
		return err
	}

	origin := rep.Source
	if rep.PID > 0 {
		origin += ", pid " + strconv.Itoa(rep.PID)
	}
	if _, err := p.muted.Fprintf(w, " (%s)\n", origin); err != nil {
		return err
	}

	var rows [][2]string
	if s := rep.Server; s != nil {
		if s.Version != "" {
			v := s.Version
			if s.Protocol > 0 {
				v += fmt.Sprintf(" (protocol %d)", s.Protocol)
			}
			rows = append(rows, [2]string{"version", v})
		}
		if s.Game != "" {
			rows = append(rows, [2]string{"game", s.Game})
		}
		if s.Map != "" {
			rows = append(rows, [2]string{"map", s.Map})
		}
		rows = append(rows, [2]string{"players", fmt.Sprintf("%d/%d", s.Online, s.Max)})
		if s.MOTD != "" {
			rows = append(rows, [2]string{"motd", s.MOTD})
		}
	}
	if rep.CountryCode != "" {
		rows = append(rows, [2]string{"country", rep.CountryCode})
	}
	rows = append(rows, [2]string{"probes", fmt.Sprintf("%d in %s", rep.Attempts, rep.Duration.Round(time.Millisecond))})

	for _, r := range rows {
		if _, err := p.label.Fprintf(w, "  %-8s ", r[0]); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, r[1]); err != nil {
			return err
		}
	}

	return nil
}

func serverKind(protocol string) string {
	if protocol == config.ProtocolA2S {
		return "Game server"
	}

	return "Minecraft server"
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
