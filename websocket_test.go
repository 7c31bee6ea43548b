// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestWSRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, errCh := startServer(t, WithTransport(TransportWS), WithLinger(time.Second))
	url := "ws://" + s.Addr() + "/"

	client, err := DialWS(ctx, url)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	// Skip the close handshake; the server stops reading after STOP.
	defer client.conn.CloseNow()

	if got := call(t, client, "beat", "echo", "hello"); got != "beat:::hello" {
		t.Errorf("got %q, want %q", got, "beat:::hello")
	}
	if got := call(t, client, "beat"); got != "beat" {
		t.Errorf("got %q, want %q", got, "beat")
	}

	// One peer at a time.
	if second, err := DialWS(ctx, url); err == nil {
		second.Close()
		t.Fatal("second websocket peer accepted")
	}

	if got := call(t, client, "STOP"); got != "STOPPED" {
		t.Errorf("got %q, want %q", got, "STOPPED")
	}
	if err := waitErr(t, errCh); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestWSPeerReconnects(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, errCh := startServer(t, WithTransport(TransportWS), WithLinger(time.Second))
	url := "ws://" + s.Addr() + "/"

	first, err := DialWS(ctx, url)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	if got := call(t, first, "beat"); got != "beat" {
		t.Fatalf("got %q", got)
	}
	_ = first.Close()

	var second *WSConn
	for second == nil {
		// The endpoint frees the slot once it observes the close.
		c, err := DialWS(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("DialWS: %v", err)
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}
		second = c
	}
	defer second.conn.CloseNow()

	if got := call(t, second, "beat", "echo", "again"); got != "beat:::again" {
		t.Fatalf("got %q", got)
	}
	if got := call(t, second, "STOP"); got != "STOPPED" {
		t.Fatalf("got %q", got)
	}
	if err := waitErr(t, errCh); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestWSInvalidUTF8IsFatal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, errCh := startServer(t, WithTransport(TransportWS), WithLinger(time.Second))
	client, err := DialWS(ctx, "ws://"+s.Addr()+"/")
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.conn.CloseNow()

	if err := client.conn.Write(ctx, websocket.MessageBinary, []byte{0, 0xc3, 0x28}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := waitErr(t, errCh); !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
}

func TestFrameEncoding(t *testing.T) {
	text, more, err := decodeFrame(encodeFrame("echo", true))
	if err != nil || text != "echo" || !more {
		t.Fatalf("got %q, %v, %v", text, more, err)
	}
	text, more, err = decodeFrame(encodeFrame("", false))
	if err != nil || text != "" || more {
		t.Fatalf("got %q, %v, %v", text, more, err)
	}
	if _, _, err := decodeFrame(nil); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("empty frame: %v", err)
	}
}
