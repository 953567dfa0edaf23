package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestartRequired(t *testing.T) {
	base := "inputs:\n  - path: /a\nrules:\n  - id: r1\n    when: Domain == \"a\"\n"

	tests := []struct {
		name string
		next string
		want []string
	}{
		{name: "unchanged", next: base, want: nil},
		{
			name: "rules only",
			next: "inputs:\n  - path: /a\nrules:\n  - id: r2\n    when: Domain == \"b\"\n",
			want: nil,
		},
		{
			name: "input path",
			next: "inputs:\n  - path: /b\nrules:\n  - id: r1\n    when: Domain == \"a\"\n",
			want: []string{"inputs"},
		},
		{
			name: "output and logging",
			next: base + "output:\n  type: file\n  path: /tmp/out\nlogging:\n  level: debug\n",
			want: []string{"logging", "output"},
		},
		{
			name: "syslog metrics checkpoint",
			next: base + "syslog:\n  listen: \":5140\"\nmetrics:\n  listen: \":9090\"\ncheckpoint:\n  path: /var/lib/cp.db\n",
			want: []string{"syslog", "metrics", "checkpoint"},
		},
	}

	old, err := Parse([]byte(base))
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Parse([]byte(tt.next))
			require.NoError(t, err)
			assert.Equal(t, tt.want, RestartRequired(old, next))
		})
	}
}

func TestRestartRequired_Nil(t *testing.T) {
	assert.Nil(t, RestartRequired(nil, &Config{}))
	assert.Nil(t, RestartRequired(&Config{}, nil))
}

func TestRestartRequired_Durations(t *testing.T) {
	a := &Config{Output: OutputConfig{Type: OutputHTTP, URL: "http://x", Timeout: time.Second}}
	b := &Config{Output: OutputConfig{Type: OutputHTTP, URL: "http://x", Timeout: 2 * time.Second}}
	assert.Equal(t, []string{"output"}, RestartRequired(a, b))
}
