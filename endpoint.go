// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned once an endpoint or peer is closed.
	ErrClosed = errors.New("beatrpc: endpoint closed")
	// ErrDecode reports a frame that is not valid UTF-8.
	ErrDecode = errors.New("beatrpc: frame is not valid utf-8")
	// ErrBadFrame reports a frame header that cannot be honoured.
	ErrBadFrame = errors.New("beatrpc: malformed frame")
)

// Endpoint is the server side of a bidirectional, frame-ordered socket with a
// single peer. It is owned by exactly one heartbeat loop and is not safe for
// concurrent use.
type Endpoint interface {
	io.Closer

	// Send transmits one frame, blocking until the transport accepts it.
	Send(text string) error

	// Recv blocks until one frame is available and returns its text.
	Recv() (string, error)

	// More reports whether the frame last returned by Recv is followed by
	// more frames of the same message.
	More() bool

	// Addr returns the bound address.
	Addr() string
}

// Peer is the connecting side of an endpoint. It sends whole messages and
// reads single frame replies.
type Peer interface {
	io.Closer
	SendMessage(frames ...string) error
	Recv() (string, error)
}

// EndpointOption configures Bind.
type EndpointOption func(*endpointOptions)

type endpointOptions struct {
	transport string
	linger    time.Duration
	log       zerolog.Logger
}

func defaultEndpointOptions() *endpointOptions {
	return &endpointOptions{
		transport: DefaultTransport,
		linger:    DefaultLinger,
		log:       zerolog.Nop(),
	}
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) EndpointOption {
	return func(o *endpointOptions) { o.transport = t }
}

// WithLinger bounds how long Close may wait for unsent frames.
func WithLinger(d time.Duration) EndpointOption {
	return func(o *endpointOptions) { o.linger = d }
}

// WithEndpointLogger sets the logger used for connection events.
func WithEndpointLogger(l zerolog.Logger) EndpointOption {
	return func(o *endpointOptions) { o.log = l }
}
