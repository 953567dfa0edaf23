package config

import "reflect"

// RestartRequired lists the top-level sections that differ between old and
// next but are only read at startup. Rules are applied live and never
// appear in the result.
func RestartRequired(old, next *Config) []string {
	if old == nil || next == nil {
		return nil
	}
	sections := []struct {
		name string
		a, b any
	}{
		{"logging", old.Logging, next.Logging},
		{"inputs", old.Inputs, next.Inputs},
		{"syslog", old.Syslog, next.Syslog},
		{"output", old.Output, next.Output},
		{"metrics", old.Metrics, next.Metrics},
		{"checkpoint", old.Checkpoint, next.Checkpoint},
	}
	var changed []string
	for _, s := range sections {
		if !reflect.DeepEqual(s.a, s.b) {
			changed = append(changed, s.name)
		}
	}
	return changed
}
