package metrics

import (
	"net/netip"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyra/squidnorm/internal/webproxy"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector()
	reg := prometheus.NewRegistry()
	c.Register(reg)

	l := webproxy.NewLog("x", 0, webproxy.Unspecified)
	l.Parser = "squid"
	l.Event = &webproxy.Event{
		SourceIP: netip.MustParseAddr("10.0.0.1"),
		InBytes:  1500,
		Outcome:  webproxy.OutcomeAllow,
	}

	c.ObserveLine("/var/log/squid/access.log")
	c.ObserveLine("/var/log/squid/access.log")
	c.ObserveEvent(l)
	c.ObserveEvent(l)
	c.ObserveEvent(webproxy.NewLog("raw", 0, webproxy.Unspecified))
	c.ObserveParseError("format_mismatch")
	c.ObserveRuleDrop("internal")
	c.ObserveSinkError("http")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Lines.WithLabelValues("/var/log/squid/access.log")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Events.WithLabelValues("squid", "ALLOW")))
	assert.Equal(t, 3000.0, testutil.ToFloat64(c.ResponseBytes.WithLabelValues("squid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ParseErrors.WithLabelValues("format_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RuleDrops.WithLabelValues("internal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SinkErrors.WithLabelValues("http")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector().Register(reg)
	assert.Panics(t, func() { NewCollector().Register(reg) })
}
