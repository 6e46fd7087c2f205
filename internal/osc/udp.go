// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Sender writes datagrams to a fixed UDP destination.
type Sender struct {
	conn *net.UDPConn
	addr string
}

// Dial resolves host:port and opens a connected UDP socket.
func Dial(host string, port int) (*Sender, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Sender{conn: conn, addr: addr}, nil
}

// Send writes one datagram.
func (s *Sender) Send(b []byte) error {
	if len(b) > MaxPacketSize {
		return fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(b))
	}
	_, err := s.conn.Write(b)
	return err
}

// Addr returns the destination as host:port.
func (s *Sender) Addr() string { return s.addr }

func (s *Sender) Close() error { return s.conn.Close() }

// Listener receives and decodes bundles on a UDP port.
type Listener struct {
	conn *net.UDPConn
	buf  []byte
}

// Listen binds a UDP socket on addr (host:port, host may be empty).
func Listen(addr string) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Listener{conn: conn, buf: make([]byte, 64*1024)}, nil
}

// LocalAddr returns the bound address.
func (l *Listener) LocalAddr() net.Addr { return l.conn.LocalAddr() }

// Receive blocks until one datagram is decoded or ctx is done.
func (l *Listener) Receive(ctx context.Context) (Bundle, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Bundle{}, err
		}
		_ = l.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := l.conn.ReadFromUDP(l.buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return Bundle{}, err
		}
		return ParsePacket(l.buf[:n])
	}
}

func (l *Listener) Close() error { return l.conn.Close() }
