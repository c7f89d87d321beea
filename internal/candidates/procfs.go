// Package candidates enumerates local listening TCP sockets owned by processes that look like
// a Minecraft server, by reading the Linux procfs.
package candidates

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnsupported is returned when procfs is not available.
var ErrUnsupported = errors.New("procfs not available")

// stateListen is the TCP_LISTEN state in /proc/net/tcp.
const stateListen = "0A"

// Candidate is a listening port owned by a matching process.
type Candidate struct {
	Name string
	PID  int
	Port int
}

// Supplier finds candidates under a procfs root.
type Supplier struct {
	// Root is the procfs mount point, usually /proc.
	Root string

	// Name must be contained in the process name (case-insensitive).
	Name string

	// Arg must be contained in one of the command line arguments (case-insensitive).
	Arg string
}

// New returns a Supplier with the given filters.
func New(root, name, arg string) *Supplier {
	if root == "" {
		root = "/proc"
	}

	return &Supplier{Root: root, Name: name, Arg: arg}
}

// Candidates returns matching (pid, port) pairs in socket table order, tcp before tcp6.
// Processes that cannot be inspected are skipped.
func (s *Supplier) Candidates() ([]Candidate, error) {
	if _, err := os.Stat(filepath.Join(s.Root, "net", "tcp")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	var listeners []listener
	for _, table := range []string{"tcp", "tcp6"} {
		rows, err := readListeners(filepath.Join(s.Root, "net", table))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		listeners = append(listeners, rows...)
	}
	if len(listeners) == 0 {
		return nil, nil
	}

	owners, err := s.socketOwners()
	if err != nil {
		return nil, err
	}

	type key struct{ pid, port int }
	seen := make(map[key]struct{})
	matched := make(map[int]string)
	var out []Candidate

	for _, l := range listeners {
		pid, ok := owners[l.inode]
		if !ok {
			continue
		}

		name, known := matched[pid]
		if !known {
			if s.matches(pid) {
				name = s.comm(pid)
			}
			matched[pid] = name
		}
		if name == "" {
			continue
		}

		k := key{pid, l.port}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Candidate{PID: pid, Port: l.port, Name: name})
	}

	return out, nil
}

type listener struct {
	inode string
	port  int
}

// readListeners parses a /proc/net/tcp style table and keeps LISTEN rows.
func readListeners(path string) ([]listener, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return parseListeners(f)
}

func parseListeners(r io.Reader) ([]listener, error) {
	var out []listener
	sc := bufio.NewScanner(r)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}

		fields := strings.Fields(sc.Text())
		if len(fields) < 10 || fields[3] != stateListen {
			continue
		}

		_, hexPort, ok := strings.Cut(fields[1], ":")
		if !ok {
			continue
		}
		port, err := strconv.ParseUint(hexPort, 16, 16)
		if err != nil || port == 0 {
			continue
		}

		// inode 0 means the socket is not owned by any process we could see
		if fields[9] == "0" {
			continue
		}
		out = append(out, listener{inode: fields[9], port: int(port)})
	}

	return out, sc.Err()
}

// socketOwners maps socket inodes to the pid holding them.
func (s *Supplier) socketOwners() (map[string]int, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]int)
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}

		fdDir := filepath.Join(s.Root, e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			log.Trace().Err(err).Int("pid", pid).Msg("Skipping process")
			continue
		}

		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			inode, ok := strings.CutPrefix(target, "socket:[")
			if !ok {
				continue
			}
			inode = strings.TrimSuffix(inode, "]")
			if _, taken := owners[inode]; !taken {
				owners[inode] = pid
			}
		}
	}

	return owners, nil
}

// matches applies the name and command line filters to pid.
func (s *Supplier) matches(pid int) bool {
	name := s.comm(pid)
	if name == "" || !containsFold(name, s.Name) {
		return false
	}

	raw, err := os.ReadFile(filepath.Join(s.Root, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return false
	}
	for _, arg := range strings.Split(string(raw), "\x00") {
		if arg != "" && containsFold(arg, s.Arg) {
			return true
		}
	}

	return false
}

func (s *Supplier) comm(pid int) string {
	raw, err := os.ReadFile(filepath.Join(s.Root, strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(raw))
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
