package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/logtail"
	"github.com/cyra/squidnorm/internal/metrics"
	"github.com/cyra/squidnorm/internal/parser"
	"github.com/cyra/squidnorm/internal/rules"
	"github.com/cyra/squidnorm/internal/sink"
	"github.com/cyra/squidnorm/internal/syslog"
	"github.com/cyra/squidnorm/internal/webproxy"
)

// SyslogInput is the input label used for lines received over syslog.
const SyslogInput = "syslog"

// syslogBuffer absorbs bursts from the network listener. File inputs are
// unbuffered so a line counted in a checkpoint has reached Run.
const syslogBuffer = 256

// Pipeline normalizes raw logs, filters them and hands them to a sink. One
// Pipeline is shared by every input.
type Pipeline struct {
	rules   *rules.Engine
	sink    sink.Sink
	metrics *metrics.Collector
	logger  *logging.Logger
}

// New creates a Pipeline. engine may be nil to keep every event.
func New(engine *rules.Engine, s sink.Sink, m *metrics.Collector, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		rules:   engine,
		sink:    s,
		metrics: m,
		logger:  logger,
	}
}

// Run consumes raw logs from in until it is closed, parsing each with p.
// Producers close in once ctx is cancelled, so lines already read are still
// delivered before Run returns.
func (pl *Pipeline) Run(ctx context.Context, input string, p parser.Parser, in <-chan *webproxy.Log) {
	for raw := range in {
		pl.Process(ctx, input, p, raw)
	}
}

// Process handles a single raw log. Per-line failures are logged and
// counted, never returned.
func (pl *Pipeline) Process(ctx context.Context, input string, p parser.Parser, raw *webproxy.Log) {
	pl.metrics.ObserveLine(input)

	l, err := p.Parse(raw)
	if err != nil {
		kind := parser.KindOf(err)
		pl.metrics.ObserveParseError(kind)
		if parser.IsFormatMismatch(err) {
			pl.logger.Debugf("skipping line from %s: %v", input, err)
		} else {
			pl.logger.Warnf("parse error on %s: %v", input, err)
		}
		return
	}

	if pl.rules != nil {
		if d := pl.rules.Evaluate(l); !d.Keep {
			pl.metrics.ObserveRuleDrop(d.RuleID)
			return
		}
	}

	pl.metrics.ObserveEvent(l)

	if err := pl.sink.Write(ctx, l); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		pl.metrics.ObserveSinkError(pl.sink.Name())
		pl.logger.Errorf("sink %s: %v", pl.sink.Name(), err)
	}
}

// StartInputs starts a tailer for every configured file and the syslog
// listener when enabled, each feeding its own Run loop. The returned wait
// function blocks until all of them have stopped after ctx is cancelled.
func (pl *Pipeline) StartInputs(ctx context.Context, cfg *config.Config, checkpoints logtail.Checkpointer) (wait func(), err error) {
	var wg sync.WaitGroup

	type source struct {
		input  string
		parser parser.Parser
		buffer int
		start  func(chan<- *webproxy.Log)
	}
	var sources []source

	for _, in := range cfg.Inputs {
		p, err := parser.New(in.Parser)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in.Path, err)
		}
		t := logtail.New(in.Path, logtail.Options{
			Start:         in.Start,
			Checkpoints:   checkpoints,
			FlushInterval: cfg.Checkpoint.Interval,
		}, pl.logger.With("input", in.Path))

		sources = append(sources, source{
			input:  in.Path,
			parser: p,
			start: func(out chan<- *webproxy.Log) {
				if err := t.Tail(ctx, out); err != nil && !errors.Is(err, context.Canceled) {
					pl.logger.Errorf("tailer %s stopped: %v", t.Path(), err)
				}
			},
		})
	}

	if cfg.Syslog.Listen != "" {
		p, err := parser.New(cfg.Syslog.Parser)
		if err != nil {
			return nil, fmt.Errorf("syslog: %w", err)
		}
		srv := syslog.NewServer(cfg.Syslog, pl.logger.With("input", SyslogInput))
		if err := srv.Listen(); err != nil {
			return nil, err
		}
		sources = append(sources, source{
			input:  SyslogInput,
			parser: p,
			buffer: syslogBuffer,
			start: func(out chan<- *webproxy.Log) {
				_ = srv.Serve(ctx, out)
			},
		})
	}

	for _, src := range sources {
		ch := make(chan *webproxy.Log, src.buffer)

		wg.Add(2)
		go func() {
			defer wg.Done()
			defer close(ch)
			src.start(ch)
		}()
		go func() {
			defer wg.Done()
			pl.Run(ctx, src.input, src.parser, ch)
		}()
	}

	pl.logger.Infof("started %d inputs", len(sources))
	return wg.Wait, nil
}
