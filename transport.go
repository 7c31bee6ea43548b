// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"sort"
	"sync"
	"time"
)

// Transport types
const (
	TransportTCP = "tcp" // length-prefixed frames over TCP, default
	TransportWS  = "ws"  // one websocket message per frame
)

// DefaultTransport is the default transport type (TCP)
const DefaultTransport = TransportTCP

// DefaultLinger is applied to a peer connection on close.
const DefaultLinger = 5 * time.Second

type bindFunc func(addr string, o *endpointOptions) (Endpoint, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]bindFunc{
		TransportTCP: bindTCP,
		TransportWS:  bindWS,
	}
)

func lookupTransport(name string) (bindFunc, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	bind, ok := transports[name]
	return bind, ok
}

// AvailableTransports returns the sorted list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	_, ok := lookupTransport(name)
	return ok
}
