package protocol

import (
	"encoding/json"
	"strings"
)

// Status is a decoded status document. Only key presence is checked for validity;
// the values are kept raw.
type Status struct {
	Fields map[string]json.RawMessage
	Raw    []byte
}

// Summary is a typed, best-effort view of the fields most servers report.
type Summary struct {
	Version  string
	MOTD     string
	Protocol int
	Online   int
	Max      int
}

// Valid reports whether the document carries both "description" and "players".
func (s *Status) Valid() bool {
	return s.Validate() == nil
}

// Validate returns ErrMissingFields unless both "description" and "players" are present.
func (s *Status) Validate() error {
	if s == nil {
		return ErrMissingFields
	}
	if _, ok := s.Fields["description"]; !ok {
		return ErrMissingFields
	}
	if _, ok := s.Fields["players"]; !ok {
		return ErrMissingFields
	}

	return nil
}

// Summary extracts version, player counts and the flattened MOTD.
// Fields that do not decode are left zero.
func (s *Status) Summary() Summary {
	var sum Summary
	if s == nil {
		return sum
	}

	var version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	}
	if raw, ok := s.Fields["version"]; ok && json.Unmarshal(raw, &version) == nil {
		sum.Version = version.Name
		sum.Protocol = version.Protocol
	}

	var players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	}
	if raw, ok := s.Fields["players"]; ok && json.Unmarshal(raw, &players) == nil {
		sum.Online = players.Online
		sum.Max = players.Max
	}

	if raw, ok := s.Fields["description"]; ok {
		var desc any
		if json.Unmarshal(raw, &desc) == nil {
			var sb strings.Builder
			flattenText(&sb, desc)
			sum.MOTD = strings.TrimSpace(sb.String())
		}
	}

	return sum
}

// flattenText concatenates the plain text of a chat component tree.
func flattenText(sb *strings.Builder, v any) {
	switch c := v.(type) {
	case string:
		sb.WriteString(c)
	case []any:
		for _, e := range c {
			flattenText(sb, e)
		}
	case map[string]any:
		if text, ok := c["text"].(string); ok {
			sb.WriteString(text)
		}
		if extra, ok := c["extra"]; ok {
			flattenText(sb, extra)
		}
	}
}
