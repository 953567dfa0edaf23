// Package sink delivers normalized logs to their destination.
package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/webproxy"
)

// Sink is the interface implemented by output destinations. Implementations
// are safe for concurrent use.
type Sink interface {
	// Write delivers one normalized log.
	Write(ctx context.Context, l *webproxy.Log) error
	// Name returns a short identifier for logging and metrics.
	Name() string
	// Close flushes and releases the destination.
	Close() error
}

// New constructs a Sink from configuration.
func New(cfg config.OutputConfig, logger *logging.Logger) (Sink, error) {
	switch cfg.Type {
	case "", config.OutputStdout:
		return NewWriter(config.OutputStdout, os.Stdout), nil
	case config.OutputFile:
		return NewFile(cfg)
	case config.OutputHTTP:
		return NewHTTP(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported output.type %q", cfg.Type)
	}
}
