// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	// flagMore marks a frame followed by more frames of the same message.
	flagMore byte = 0x01

	maxFrameSize = 64 * 1024 * 1024 // 64MB max
)

// encodeFrame returns [1 flags][text].
func encodeFrame(text string, more bool) []byte {
	buf := make([]byte, 1+len(text))
	if more {
		buf[0] = flagMore
	}
	copy(buf[1:], text)
	return buf
}

// decodeFrame is the inverse of encodeFrame. The text must be valid UTF-8.
func decodeFrame(msg []byte) (string, bool, error) {
	if len(msg) < 1 {
		return "", false, ErrBadFrame
	}
	body := msg[1:]
	if !utf8.Valid(body) {
		return "", false, ErrDecode
	}
	return string(body), msg[0]&flagMore != 0, nil
}

// appendStreamFrame appends [4 len][1 flags][text] to buf.
func appendStreamFrame(buf []byte, text string, more bool) []byte {
	msgLen := 1 + len(text)
	buf = binary.BigEndian.AppendUint32(buf, uint32(msgLen))
	var flags byte
	if more {
		flags = flagMore
	}
	buf = append(buf, flags)
	return append(buf, text...)
}

// readStreamFrame reads one [4 len][1 flags][text] frame from r.
func readStreamFrame(r io.Reader, header []byte) (string, bool, error) {
	if _, err := io.ReadFull(r, header[:4]); err != nil {
		return "", false, err
	}

	msgLen := binary.BigEndian.Uint32(header[:4])
	if msgLen == 0 || msgLen > maxFrameSize {
		return "", false, fmt.Errorf("%w: length %d", ErrBadFrame, msgLen)
	}

	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(r, msg); err != nil {
		return "", false, err
	}
	return decodeFrame(msg)
}

// TCPEndpoint is a TCP endpoint speaking length-prefixed frames. It binds on
// creation and talks to one peer at a time, accepted on first use.
type TCPEndpoint struct {
	listener net.Listener
	addr     string
	linger   time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	conn   net.Conn
	closed atomic.Bool

	header [4]byte
	more   bool
}

func bindTCP(addr string, o *endpointOptions) (Endpoint, error) {
	return ListenTCP(addr, o.linger, o.log)
}

// ListenTCP binds a TCP endpoint on addr.
func ListenTCP(addr string, linger time.Duration, log zerolog.Logger) (*TCPEndpoint, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp bind: %w", err)
	}
	return &TCPEndpoint{
		listener: listener,
		addr:     listener.Addr().String(),
		linger:   linger,
		log:      log,
	}, nil
}

// peer returns the connected peer, accepting one if needed. Further
// connections wait in the listen backlog until the current peer leaves.
func (e *TCPEndpoint) peer() (net.Conn, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	conn, err := e.listener.Accept()
	if err != nil {
		if e.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("tcp accept: %w", err)
	}

	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()
	e.log.Info().Str("peer", conn.RemoteAddr().String()).Msg("peer connected")
	return conn, nil
}

// drop forgets a peer that hung up between messages.
func (e *TCPEndpoint) drop(conn net.Conn) {
	e.mu.Lock()
	if e.conn == conn {
		e.conn = nil
	}
	e.mu.Unlock()
	conn.Close()
	e.log.Info().Str("peer", conn.RemoteAddr().String()).Msg("peer disconnected")
}

// Send writes one final frame.
func (e *TCPEndpoint) Send(text string) error {
	conn, err := e.peer()
	if err != nil {
		return err
	}
	if _, err := conn.Write(appendStreamFrame(nil, text, false)); err != nil {
		return fmt.Errorf("tcp write: %w", err)
	}
	return nil
}

// Recv reads one frame. A peer that hangs up cleanly between messages is
// replaced by the next one to connect; a hang up inside a message is an error.
func (e *TCPEndpoint) Recv() (string, error) {
	for {
		conn, err := e.peer()
		if err != nil {
			return "", err
		}
		text, more, err := readStreamFrame(conn, e.header[:])
		if err == nil {
			e.more = more
			return text, nil
		}
		if e.closed.Load() {
			return "", ErrClosed
		}
		if errors.Is(err, io.EOF) && !e.more {
			e.drop(conn)
			continue
		}
		return "", fmt.Errorf("tcp read: %w", err)
	}
}

// More reports the flag of the last frame read.
func (e *TCPEndpoint) More() bool {
	return e.more
}

// Addr returns the bound address.
func (e *TCPEndpoint) Addr() string {
	return e.addr
}

// Close releases the listener and the peer connection. The linger duration
// is applied to the peer before closing it.
func (e *TCPEndpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()

	err := e.listener.Close()
	if conn == nil {
		return err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetLinger(lingerSeconds(e.linger))
	}
	return conn.Close()
}

// lingerSeconds rounds d up to whole seconds.
func lingerSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// FrameConn is the connecting side of a TCP endpoint.
type FrameConn struct {
	conn    net.Conn
	writeMu sync.Mutex
	header  [4]byte
	closed  atomic.Bool
}

// Dial connects to a TCP endpoint.
func Dial(ctx context.Context, addr string) (*FrameConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial: %w", err)
	}
	return &FrameConn{conn: conn}, nil
}

// SendMessage writes frames as one message: every frame but the last is
// flagged as followed by more.
func (c *FrameConn) SendMessage(frames ...string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if len(frames) == 0 {
		return fmt.Errorf("%w: empty message", ErrBadFrame)
	}
	var buf []byte
	for i, f := range frames {
		buf = appendStreamFrame(buf, f, i < len(frames)-1)
	}

	c.writeMu.Lock()
	_, err := c.conn.Write(buf)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("tcp write: %w", err)
	}
	return nil
}

// Recv reads one frame and ignores its flag.
func (c *FrameConn) Recv() (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	text, _, err := readStreamFrame(c.conn, c.header[:])
	return text, err
}

// Close closes the connection
func (c *FrameConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
