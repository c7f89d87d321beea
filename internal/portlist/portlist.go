// Package portlist parses port specifications such as "25565,25570-25580".
package portlist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmpty is returned for a blank specification.
var ErrEmpty = errors.New("empty port spec")

// Parse returns the ports named by spec in the order given, without duplicates.
// Supported forms:
//   - single: "25565"
//   - list: "25565,25566"
//   - range: "25565-25665"
//   - mixed: "25565,30000-30010"
func Parse(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmpty
	}

	seen := make(map[int]struct{})
	var ports []int
	add := func(p int) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		ports = append(ports, p)
	}

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("invalid empty token in port spec %q", spec)
		}

		lo, hi, isRange := strings.Cut(token, "-")
		start, err := parsePort(lo)
		if err != nil {
			return nil, err
		}
		if !isRange {
			add(start)
			continue
		}

		end, err := parsePort(hi)
		if err != nil {
			return nil, err
		}
		if start > end {
			return nil, fmt.Errorf("range start greater than end: %s", token)
		}
		for p := start; p <= end; p++ {
			add(p)
		}
	}

	return ports, nil
}

// Range returns the closed range [from, to]. It returns nil when from > to.
func Range(from, to int) []int {
	if from > to {
		return nil
	}

	ports := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		ports = append(ports, p)
	}

	return ports
}

func parsePort(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if v < 1 || v > 65535 {
		return 0, fmt.Errorf("port %d out of range 1..65535", v)
	}

	return v, nil
}
