// Package models defines the data structures shared by discovery, reporting and the HTTP API.
package models

import "time"

// Discovery sources.
const (
	SourceDirect  = "direct"
	SourceProcess = "process"
	SourceScan    = "scan"
)

// ServerInfo is what a verified server reported about itself.
type ServerInfo struct {
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	MOTD     string `json:"motd,omitempty" yaml:"motd,omitempty"`
	Map      string `json:"map,omitempty" yaml:"map,omitempty"`
	Game     string `json:"game,omitempty" yaml:"game,omitempty"`
	Protocol int    `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Online   int    `json:"online" yaml:"online"`
	Max      int    `json:"max" yaml:"max"`
}

// Report is the outcome of one discovery run.
type Report struct {
	Started     time.Time     `json:"started" yaml:"started"`
	Server      *ServerInfo   `json:"server,omitempty" yaml:"server,omitempty"`
	Host        string        `json:"host" yaml:"host"`
	Protocol    string        `json:"protocol" yaml:"protocol"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
	CountryCode string        `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Port        int           `json:"port,omitempty" yaml:"port,omitempty"`
	PID         int           `json:"pid,omitempty" yaml:"pid,omitempty"`
	Candidates  int           `json:"candidates" yaml:"candidates"`
	Attempts    int64         `json:"attempts" yaml:"attempts"`
	Found       bool          `json:"found" yaml:"found"`
}
