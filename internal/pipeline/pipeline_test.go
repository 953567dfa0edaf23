package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/metrics"
	"github.com/cyra/squidnorm/internal/parser"
	"github.com/cyra/squidnorm/internal/rules"
	"github.com/cyra/squidnorm/internal/webproxy"
)

const (
	squidLine = "1613260836.628    287 172.17.0.1 TCP_TUNNEL/200 18353 CONNECT www.google.com:443 - HIER_DIRECT/142.250.184.4 -"
	guardLine = "2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:443 172.17.0.1/172.17.0.1 - CONNECT REDIRECT"
	badLine   = "1613260836.628 287 172.17.0.1 TCP_MISS/abc 1 GET http://a/ - HIER_DIRECT/1.1.1.1 -"
)

type memSink struct {
	mu   sync.Mutex
	logs []*webproxy.Log
	err  error
}

func (m *memSink) Write(_ context.Context, l *webproxy.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *memSink) Name() string { return "mem" }
func (m *memSink) Close() error { return nil }

func (m *memSink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func (m *memSink) At(i int) *webproxy.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs[i]
}

func autoParser(t *testing.T) parser.Parser {
	t.Helper()
	p, err := parser.New("auto")
	require.NoError(t, err)
	return p
}

func TestProcess(t *testing.T) {
	out := &memSink{}
	m := metrics.NewCollector()
	pl := New(nil, out, m, logging.Nop())
	p := autoParser(t)
	ctx := context.Background()

	pl.Process(ctx, "test", p, webproxy.NewLog(squidLine, 1, webproxy.Unspecified))
	pl.Process(ctx, "test", p, webproxy.NewLog(guardLine, 2, webproxy.Unspecified))
	pl.Process(ctx, "test", p, webproxy.NewLog("<13>Feb 14 00:00:36 host sshd[12]: Accepted password for root", 3, webproxy.Unspecified))
	pl.Process(ctx, "test", p, webproxy.NewLog(badLine, 4, webproxy.Unspecified))

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "squid", out.At(0).Parser)
	assert.Equal(t, "squidguard", out.At(1).Parser)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Lines.WithLabelValues("test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("squid", "ALLOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("squidguard", "BLOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors.WithLabelValues("format_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors.WithLabelValues("parse_error")))
}

func TestProcess_RuleDrop(t *testing.T) {
	engine, err := rules.NewEngine([]config.Rule{
		{ID: "drop-blocks", When: `Outcome == "BLOCK"`, Action: config.ActionDrop},
	}, logging.Nop())
	require.NoError(t, err)

	out := &memSink{}
	m := metrics.NewCollector()
	pl := New(engine, out, m, logging.Nop())
	p := autoParser(t)

	pl.Process(context.Background(), "test", p, webproxy.NewLog(guardLine, 0, webproxy.Unspecified))
	pl.Process(context.Background(), "test", p, webproxy.NewLog(squidLine, 0, webproxy.Unspecified))

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "squid", out.At(0).Parser)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleDrops.WithLabelValues("drop-blocks")))
}

func TestProcess_SinkError(t *testing.T) {
	out := &memSink{err: errors.New("collector down")}
	m := metrics.NewCollector()
	pl := New(nil, out, m, logging.Nop())

	pl.Process(context.Background(), "test", autoParser(t), webproxy.NewLog(squidLine, 0, webproxy.Unspecified))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors.WithLabelValues("mem")))
}

func TestRun_StopsOnClose(t *testing.T) {
	out := &memSink{}
	pl := New(nil, out, metrics.NewCollector(), logging.Nop())

	in := make(chan *webproxy.Log, 2)
	in <- webproxy.NewLog(squidLine, 0, webproxy.Unspecified)
	in <- webproxy.NewLog(guardLine, 0, webproxy.Unspecified)
	close(in)

	pl.Run(context.Background(), "test", autoParser(t), in)
	assert.Equal(t, 2, out.Len())
}

func TestStartInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(squidLine+"\n"+guardLine+"\n"), 0o644))

	cfg, err := config.Parse([]byte("inputs:\n  - path: " + path + "\n    start: beginning\n"))
	require.NoError(t, err)

	out := &memSink{}
	pl := New(nil, out, metrics.NewCollector(), logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	wait, err := pl.StartInputs(ctx, cfg, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return out.Len() == 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("inputs did not stop")
	}
}

func TestStartInputs_TagsLogsWithInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	logPath := filepath.Join(dir, "squidnorm.log")
	require.NoError(t, os.WriteFile(path, []byte(squidLine+"\n"), 0o644))

	logger, err := logging.New(config.LoggingConfig{Level: "info", JSON: true, File: logPath})
	require.NoError(t, err)

	cfg, err := config.Parse([]byte("inputs:\n  - path: " + path + "\n    start: beginning\n"))
	require.NoError(t, err)

	out := &memSink{}
	pl := New(nil, out, metrics.NewCollector(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	wait, err := pl.StartInputs(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return out.Len() == 1 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	wait()
	require.NoError(t, logger.Sync())

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	var tagged bool
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		msg, _ := entry["msg"].(string)
		if strings.HasPrefix(msg, "tailing log file") {
			assert.Equal(t, path, entry["input"])
			tagged = true
		}
	}
	require.NoError(t, sc.Err())
	assert.True(t, tagged, "tailer start was not logged")
}

func TestStartInputs_SyslogListenError(t *testing.T) {
	cfg := &config.Config{Syslog: config.SyslogConfig{Listen: "127.0.0.1:99999", Parser: "auto", UDP: true}}
	pl := New(nil, &memSink{}, metrics.NewCollector(), logging.Nop())
	_, err := pl.StartInputs(context.Background(), cfg, nil)
	assert.Error(t, err)
}
