// Package syslog receives proxy log lines shipped over the network.
package syslog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/webproxy"
)

const (
	maxDatagram = 64 * 1024
	maxTCPLine  = 1024 * 1024
)

// Server listens for syslog traffic over UDP and/or TCP. Every datagram or
// newline-delimited TCP line becomes a raw log whose origin is the sender.
type Server struct {
	cfg    config.SyslogConfig
	logger *logging.Logger

	udp net.PacketConn
	tcp net.Listener
}

// NewServer creates a server for cfg. Call Listen before Serve.
func NewServer(cfg config.SyslogConfig, logger *logging.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Listen binds the configured sockets.
func (s *Server) Listen() error {
	if s.cfg.UDP {
		conn, err := net.ListenPacket("udp", s.cfg.Listen)
		if err != nil {
			return fmt.Errorf("syslog udp listen %s: %w", s.cfg.Listen, err)
		}
		s.udp = conn
		s.logger.Infof("syslog UDP listening on %s", conn.LocalAddr())
	}
	if s.cfg.TCP {
		ln, err := net.Listen("tcp", s.cfg.Listen)
		if err != nil {
			if s.udp != nil {
				s.udp.Close()
			}
			return fmt.Errorf("syslog tcp listen %s: %w", s.cfg.Listen, err)
		}
		s.tcp = ln
		s.logger.Infof("syslog TCP listening on %s", ln.Addr())
	}
	return nil
}

// UDPAddr returns the bound UDP address, or nil.
func (s *Server) UDPAddr() net.Addr {
	if s.udp == nil {
		return nil
	}
	return s.udp.LocalAddr()
}

// TCPAddr returns the bound TCP address, or nil.
func (s *Server) TCPAddr() net.Addr {
	if s.tcp == nil {
		return nil
	}
	return s.tcp.Addr()
}

// Serve reads from the bound sockets until ctx is cancelled. It closes the
// sockets and waits for connection handlers before returning.
func (s *Server) Serve(ctx context.Context, out chan<- *webproxy.Log) error {
	var wg sync.WaitGroup

	if s.udp != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveUDP(ctx, out)
		}()
	}
	if s.tcp != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveTCP(ctx, out, &wg)
		}()
	}

	<-ctx.Done()
	if s.udp != nil {
		s.udp.Close()
	}
	if s.tcp != nil {
		s.tcp.Close()
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Server) serveUDP(ctx context.Context, out chan<- *webproxy.Log) {
	buf := make([]byte, maxDatagram)
	for {
		n, peer, err := s.udp.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Errorf("syslog UDP read error: %v", err)
			continue
		}
		s.emit(ctx, out, string(buf[:n]), peer)
	}
}

func (s *Server) serveTCP(ctx context.Context, out chan<- *webproxy.Log, wg *sync.WaitGroup) {
	var (
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)
	defer func() {
		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
	}()

	for {
		conn, err := s.tcp.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Errorf("syslog TCP accept error: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn, out)
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
		}()
	}
}

// handleConn reads newline-delimited lines from conn until EOF or ctx ends.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, out chan<- *webproxy.Log) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTCPLine)
	peer := conn.RemoteAddr()
	for scanner.Scan() {
		if !s.emit(ctx, out, scanner.Text(), peer) {
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warnf("syslog TCP read from %s: %v", peer, err)
	}
}

// emit forwards one line. It returns false once ctx is done.
func (s *Server) emit(ctx context.Context, out chan<- *webproxy.Log, line string, peer net.Addr) bool {
	line = strings.TrimRight(line, "\r\n\x00")
	if line == "" {
		return true
	}
	raw := webproxy.NewLog(line, time.Now().UnixMilli(), peerAddr(peer))
	select {
	case out <- raw:
		return true
	case <-ctx.Done():
		return false
	}
}

// peerAddr extracts the IP of a UDP or TCP peer. Anything else, such as an
// in-memory pipe, yields the unspecified address.
func peerAddr(a net.Addr) netip.Addr {
	switch v := a.(type) {
	case *net.UDPAddr:
		return v.AddrPort().Addr().Unmap()
	case *net.TCPAddr:
		return v.AddrPort().Addr().Unmap()
	default:
		return webproxy.Unspecified
	}
}
