// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// WSEndpoint is a websocket endpoint. Every binary message carries one frame
// encoded as [1 flags][text]. One peer is kept at a time; upgrades while
// it is connected are refused.
type WSEndpoint struct {
	listener net.Listener
	server   *http.Server
	addr     string
	linger   time.Duration
	log      zerolog.Logger

	accepted atomic.Bool
	conns    chan *websocket.Conn
	done     chan struct{}
	closed   atomic.Bool

	mu   sync.Mutex
	conn *websocket.Conn
	more bool
}

func bindWS(addr string, o *endpointOptions) (Endpoint, error) {
	return ListenWS(addr, o.linger, o.log)
}

// ListenWS binds a websocket endpoint on addr and starts serving upgrades.
func ListenWS(addr string, linger time.Duration, log zerolog.Logger) (*WSEndpoint, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ws bind: %w", err)
	}
	e := &WSEndpoint{
		listener: listener,
		addr:     listener.Addr().String(),
		linger:   linger,
		log:      log,
		conns:    make(chan *websocket.Conn, 1),
		done:     make(chan struct{}),
	}
	e.server = &http.Server{
		Handler:           http.HandlerFunc(e.accept),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := e.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error().Err(err).Msg("ws serve")
		}
	}()
	return e, nil
}

func (e *WSEndpoint) accept(w http.ResponseWriter, r *http.Request) {
	if !e.accepted.CompareAndSwap(false, true) {
		http.Error(w, "peer already connected", http.StatusConflict)
		return
	}
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		e.accepted.Store(false)
		e.log.Warn().Err(err).Msg("ws accept")
		return
	}
	c.SetReadLimit(maxFrameSize + 1)
	e.conns <- c
}

func (e *WSEndpoint) peer() (*websocket.Conn, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	e.mu.Lock()
	c := e.conn
	e.mu.Unlock()
	if c != nil {
		return c, nil
	}

	select {
	case c = <-e.conns:
	case <-e.done:
		return nil, ErrClosed
	}
	e.mu.Lock()
	e.conn = c
	e.mu.Unlock()
	e.log.Info().Str("addr", e.addr).Msg("ws peer connected")
	return c, nil
}

// Send writes one final frame.
func (e *WSEndpoint) Send(text string) error {
	c, err := e.peer()
	if err != nil {
		return err
	}
	if err := c.Write(context.Background(), websocket.MessageBinary, encodeFrame(text, false)); err != nil {
		return fmt.Errorf("ws write: %w", err)
	}
	return nil
}

// Recv reads one frame. A peer that closes between messages is replaced by
// the next one to upgrade; closing inside a message is an error.
func (e *WSEndpoint) Recv() (string, error) {
	for {
		c, err := e.peer()
		if err != nil {
			return "", err
		}
		_, data, err := c.Read(context.Background())
		if err != nil {
			if e.closed.Load() {
				return "", ErrClosed
			}
			if hungUp(err) && !e.more {
				e.drop(c)
				continue
			}
			return "", fmt.Errorf("ws read: %w", err)
		}
		text, more, err := decodeFrame(data)
		if err != nil {
			return "", fmt.Errorf("ws read: %w", err)
		}
		e.more = more
		return text, nil
	}
}

func hungUp(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, io.EOF)
}

// drop forgets the current peer and lets the next one upgrade.
func (e *WSEndpoint) drop(c *websocket.Conn) {
	e.mu.Lock()
	if e.conn == c {
		e.conn = nil
	}
	e.mu.Unlock()
	c.CloseNow()
	e.accepted.Store(false)
	e.log.Info().Str("addr", e.addr).Msg("ws peer disconnected")
}

// More reports the flag of the last frame read.
func (e *WSEndpoint) More() bool {
	return e.more
}

// Addr returns the bound address.
func (e *WSEndpoint) Addr() string {
	return e.addr
}

// Close closes the peer and shuts the HTTP server down, waiting at most the
// linger duration.
func (e *WSEndpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	close(e.done)

	e.mu.Lock()
	c := e.conn
	e.mu.Unlock()
	if c != nil {
		c.Close(websocket.StatusNormalClosure, "server closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.linger)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		return e.server.Close()
	}
	return nil
}

// WSConn is the connecting side of a websocket endpoint.
type WSConn struct {
	conn   *websocket.Conn
	closed atomic.Bool
}

// DialWS connects to a websocket endpoint, e.g. "ws://127.0.0.1:3000/".
func DialWS(ctx context.Context, url string) (*WSConn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	c.SetReadLimit(maxFrameSize + 1)
	return &WSConn{conn: c}, nil
}

// SendMessage writes each frame as its own binary message, flagging all but
// the last as followed by more.
func (c *WSConn) SendMessage(frames ...string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if len(frames) == 0 {
		return fmt.Errorf("%w: empty message", ErrBadFrame)
	}
	for i, f := range frames {
		if err := c.conn.Write(context.Background(), websocket.MessageBinary, encodeFrame(f, i < len(frames)-1)); err != nil {
			return fmt.Errorf("ws write: %w", err)
		}
	}
	return nil
}

// Recv reads one frame and ignores its flag.
func (c *WSConn) Recv() (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	_, data, err := c.conn.Read(context.Background())
	if err != nil {
		return "", fmt.Errorf("ws read: %w", err)
	}
	text, _, err := decodeFrame(data)
	return text, err
}

// Close closes the connection
func (c *WSConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
