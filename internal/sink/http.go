package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/webproxy"
)

// HTTP posts each log as a JSON document to a collector endpoint.
type HTTP struct {
	url     string
	token   string
	headers map[string]string
	client  *http.Client
	logger  *logging.Logger
}

func NewHTTP(cfg config.OutputConfig, logger *logging.Logger) *HTTP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{
		url:     cfg.URL,
		token:   cfg.AuthToken,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (s *HTTP) Name() string {
	return config.OutputHTTP
}

func (s *HTTP) Write(ctx context.Context, l *webproxy.Log) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http request failed: status=%s", resp.Status)
	}

	s.logger.Debugf("http sink delivered %d bytes", len(data))
	return nil
}

func (s *HTTP) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
