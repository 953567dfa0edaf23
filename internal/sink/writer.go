package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/webproxy"
)

// Writer emits one JSON object per line to an io.Writer.
type Writer struct {
	name string

	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

// NewWriter wraps w. If w is an io.Closer other than stdout or stderr,
// Close closes it.
func NewWriter(name string, w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{name: name, w: w, enc: enc}
}

// NewFile opens a lumberjack-rotated NDJSON file.
func NewFile(cfg config.OutputConfig) (*Writer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("file sink: create directory: %w", err)
	}
	return NewWriter(config.OutputFile, &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}), nil
}

func (s *Writer) Name() string {
	return s.name
}

func (s *Writer) Write(_ context.Context, l *webproxy.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(l); err != nil {
		return fmt.Errorf("%s sink: %w", s.name, err)
	}
	return nil
}

func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == os.Stdout || s.w == os.Stderr {
		return nil
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
