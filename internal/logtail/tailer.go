package logtail

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hpcloud/tail"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/webproxy"
)

// Checkpointer persists read offsets between runs.
type Checkpointer interface {
	Offset(file string) (int64, bool, error)
	Save(file string, offset int64) error
}

// Options controls where tailing starts and how progress is recorded.
type Options struct {
	// Start is used when no checkpoint exists: config.StartBeginning or
	// config.StartEnd.
	Start string
	// Checkpoints may be nil to disable resume.
	Checkpoints Checkpointer
	// FlushInterval is how often the current offset is saved.
	FlushInterval time.Duration
}

// Tailer streams lines from a log file as they are written.
type Tailer struct {
	path   string
	opts   Options
	logger *logging.Logger
}

// New creates a new Tailer for the given file path.
func New(path string, opts Options, logger *logging.Logger) *Tailer {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	return &Tailer{
		path:   path,
		opts:   opts,
		logger: logger,
	}
}

// Path returns the file being tailed.
func (t *Tailer) Path() string {
	return t.path
}

// Tail follows the file and sends each line to out as a raw log until ctx
// is done.
//
// The saved offset only ever covers lines that out has accepted, so a
// restart resumes at the first line that was not delivered.
func (t *Tailer) Tail(ctx context.Context, out chan<- *webproxy.Log) error {
	loc, err := t.location()
	if err != nil {
		return err
	}

	events := &tailEvents{logger: t.logger}
	cfg := tail.Config{
		Location:  loc,
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Logger:    log.New(events, "", 0),
	}

	tf, err := tail.TailFile(t.path, cfg)
	if err != nil {
		return fmt.Errorf("tail %s: %w", t.path, err)
	}
	defer tf.Cleanup()

	t.logger.Infof("tailing log file %s", t.path)

	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	offset, saved := loc.Offset, loc.Offset
	reopens := events.reopens.Load()

	save := func() {
		if offset != saved && t.save(offset) {
			saved = offset
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop(tf)
			save()
			return ctx.Err()
		case <-ticker.C:
			save()
		case line, ok := <-tf.Lines:
			if !ok {
				save()
				return tf.Err()
			}
			if line.Err != nil {
				t.logger.Errorf("tail error: %v", line.Err)
				continue
			}
			// Lines after a reopen come from the start of the new file.
			if n := events.reopens.Load(); n != reopens {
				reopens, offset = n, 0
			}

			raw := webproxy.NewLog(line.Text, line.Time.UnixMilli(), webproxy.Unspecified)
			select {
			case out <- raw:
				offset += int64(len(line.Text)) + 1
			case <-ctx.Done():
				stop(tf)
				save()
				return ctx.Err()
			}
		}
	}
}

// stop kills the tail goroutine. It may be blocked handing over a line, so
// Lines is drained until the goroutine closes it.
func stop(tf *tail.Tail) {
	tf.Kill(nil)
	for range tf.Lines {
	}
	_ = tf.Wait()
}

// location decides the initial seek as an absolute offset. A checkpoint past
// the end of the file means the file was truncated or replaced, so it is
// ignored.
func (t *Tailer) location() (*tail.SeekInfo, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", t.path, err)
	}

	if cp := t.opts.Checkpoints; cp != nil {
		off, ok, err := cp.Offset(t.path)
		if err != nil {
			return nil, fmt.Errorf("read checkpoint for %s: %w", t.path, err)
		}
		if ok {
			if off <= info.Size() {
				t.logger.Infof("resuming %s at offset %d", t.path, off)
				return &tail.SeekInfo{Offset: off, Whence: io.SeekStart}, nil
			}
			t.logger.Warnf("checkpoint for %s is beyond end of file, ignoring", t.path)
		}
	}

	if t.opts.Start == config.StartBeginning {
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}, nil
	}
	return &tail.SeekInfo{Offset: info.Size(), Whence: io.SeekStart}, nil
}

func (t *Tailer) save(offset int64) bool {
	if t.opts.Checkpoints == nil {
		return false
	}
	if err := t.opts.Checkpoints.Save(t.path, offset); err != nil {
		t.logger.Errorf("save checkpoint for %s: %v", t.path, err)
		return false
	}
	return true
}

// tailEvents receives hpcloud/tail's internal log output. It forwards the
// messages at debug level and counts completed reopens, which tail only
// reports through its logger.
type tailEvents struct {
	logger  *logging.Logger
	reopens atomic.Int64
}

func (e *tailEvents) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if strings.HasPrefix(msg, "Successfully reopened") {
		e.reopens.Add(1)
	}
	e.logger.Debugf("tail: %s", msg)
	return len(p), nil
}
