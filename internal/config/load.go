package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cyra/squidnorm/internal/parser"
)

// Load reads, parses, and validates configuration from the provided path.
// Warns if the config file has insecure permissions (world-readable).
func Load(path string) (*Config, error) {
	// Check file permissions (Unix only).
	if runtime.GOOS != "windows" {
		if info, err := os.Stat(path); err == nil {
			mode := info.Mode().Perm()
			// Warn if file is world-readable (may contain sink tokens).
			if mode&0o004 != 0 {
				fmt.Fprintf(os.Stderr, "WARNING: config file %s is world-readable (mode %o). Consider: chmod 600 %s\n", path, mode, path)
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func validate(c *Config) error {
	if len(c.Inputs) == 0 && c.Syslog.Listen == "" {
		return fmt.Errorf("at least one input or syslog.listen is required")
	}

	for i := range c.Inputs {
		in := &c.Inputs[i]
		if in.Path == "" {
			return fmt.Errorf("input at index %d is missing path", i)
		}
		if in.Parser == "" {
			in.Parser = "auto"
		}
		if _, err := parser.New(in.Parser); err != nil {
			return fmt.Errorf("input %q: parser %q: %w", in.Path, in.Parser, err)
		}
		switch in.Start {
		case "":
			in.Start = StartEnd
		case StartBeginning, StartEnd:
		default:
			return fmt.Errorf("input %q: start must be %q or %q", in.Path, StartBeginning, StartEnd)
		}
	}

	if c.Syslog.Listen != "" {
		if c.Syslog.Parser == "" {
			c.Syslog.Parser = "auto"
		}
		if _, err := parser.New(c.Syslog.Parser); err != nil {
			return fmt.Errorf("syslog: parser %q: %w", c.Syslog.Parser, err)
		}
		if !c.Syslog.UDP && !c.Syslog.TCP {
			c.Syslog.UDP = true
		}
	}

	if c.Output.Type == "" {
		c.Output.Type = OutputStdout
	}
	switch c.Output.Type {
	case OutputStdout:
	case OutputFile:
		if c.Output.Path == "" {
			return fmt.Errorf("output.path is required when output.type=file")
		}
	case OutputHTTP:
		if c.Output.URL == "" {
			return fmt.Errorf("output.url is required when output.type=http")
		}
		if c.Output.Timeout <= 0 {
			c.Output.Timeout = 10 * time.Second
		}
	default:
		return fmt.Errorf("unsupported output.type %q", c.Output.Type)
	}

	seen := make(map[string]bool, len(c.Rules))
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.ID == "" {
			return fmt.Errorf("rule at index %d is missing id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if r.When == "" {
			return fmt.Errorf("rule %q: when is required", r.ID)
		}
		switch r.Action {
		case "":
			r.Action = ActionDrop
		case ActionDrop, ActionKeep:
		default:
			return fmt.Errorf("rule %q: action must be %q or %q", r.ID, ActionDrop, ActionKeep)
		}
	}

	if c.Metrics.Listen != "" && c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Checkpoint.Path != "" && c.Checkpoint.Interval <= 0 {
		c.Checkpoint.Interval = 5 * time.Second
	}

	// Default logging level if not provided.
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
