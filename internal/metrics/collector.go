// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cyra/squidnorm/internal/webproxy"
)

type Collector struct {
	Lines         *prometheus.CounterVec
	Events        *prometheus.CounterVec
	ParseErrors   *prometheus.CounterVec
	ResponseBytes *prometheus.CounterVec
	RuleDrops     *prometheus.CounterVec
	SinkErrors    *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		Lines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squidnorm_lines_total",
				Help: "Total number of raw lines read, by input.",
			},
			[]string{"input"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squidnorm_events_total",
				Help: "Total number of normalized events, by parser and outcome.",
			},
			[]string{"parser", "outcome"},
		),
		ParseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squidnorm_parse_errors_total",
				Help: "Total number of lines that could not be normalized, by error kind.",
			},
			[]string{"kind"},
		),
		ResponseBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squidnorm_response_bytes_total",
				Help: "Total response bytes reported by the proxy, by parser.",
			},
			[]string{"parser"},
		),
		RuleDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squidnorm_rule_drops_total",
				Help: "Total number of events dropped by filter rules.",
			},
			[]string{"rule"},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squidnorm_sink_errors_total",
				Help: "Total number of failed sink writes.",
			},
			[]string{"sink"},
		),
	}
}

func (c *Collector) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.Lines,
		c.Events,
		c.ParseErrors,
		c.ResponseBytes,
		c.RuleDrops,
		c.SinkErrors,
	)
}

func (c *Collector) ObserveLine(input string) {
	c.Lines.WithLabelValues(input).Inc()
}

// ObserveEvent counts a normalized log. Logs without an event are ignored.
func (c *Collector) ObserveEvent(l *webproxy.Log) {
	if l.Event == nil {
		return
	}
	c.Events.WithLabelValues(l.Parser, l.Event.Outcome.String()).Inc()
	c.ResponseBytes.WithLabelValues(l.Parser).Add(float64(l.Event.InBytes))
}

func (c *Collector) ObserveParseError(kind string) {
	c.ParseErrors.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveRuleDrop(rule string) {
	c.RuleDrops.WithLabelValues(rule).Inc()
}

func (c *Collector) ObserveSinkError(sink string) {
	c.SinkErrors.WithLabelValues(sink).Inc()
}

// Serve exposes the gatherer on addr at path until ctx is cancelled.
func Serve(ctx context.Context, addr, path string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
