package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Inputs     []InputConfig    `yaml:"inputs"`
	Syslog     SyslogConfig     `yaml:"syslog"`
	Output     OutputConfig     `yaml:"output"`
	Rules      []Rule           `yaml:"rules"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// LoggingConfig controls log verbosity, format and optional file rotation.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// InputConfig describes a proxy log file we are tailing.
type InputConfig struct {
	Path   string `yaml:"path"`   // e.g. /var/log/squid/access.log
	Parser string `yaml:"parser"` // squid, squidguard or auto
	Start  string `yaml:"start"`  // beginning or end, used when no checkpoint exists
}

// SyslogConfig enables the network listener for syslog-shipped lines.
type SyslogConfig struct {
	Listen string `yaml:"listen"` // e.g. ":5140"; empty disables the listener
	Parser string `yaml:"parser"`
	UDP    bool   `yaml:"udp"`
	TCP    bool   `yaml:"tcp"`
}

// OutputConfig selects and configures where normalized events go.
type OutputConfig struct {
	Type string `yaml:"type"` // "stdout", "file", "http"

	Path       string `yaml:"path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`

	URL       string            `yaml:"url,omitempty"`
	AuthToken string            `yaml:"auth_token,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Timeout   time.Duration     `yaml:"timeout,omitempty"`
}

// Rule filters normalized events with an expression.
type Rule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	When        string `yaml:"when"`   // e.g. `Outcome == "ALLOW" && Domain endsWith ".internal"`
	Action      string `yaml:"action"` // drop or keep
}

// MetricsConfig exposes Prometheus metrics over HTTP.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
	Path   string `yaml:"path"`
}

// CheckpointConfig persists tail offsets across restarts.
type CheckpointConfig struct {
	Path     string        `yaml:"path"` // empty disables checkpoints
	Interval time.Duration `yaml:"interval"`
}

const (
	ActionDrop = "drop"
	ActionKeep = "keep"

	StartBeginning = "beginning"
	StartEnd       = "end"

	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputHTTP   = "http"
)
