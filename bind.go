// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"fmt"
)

// Bind creates a server endpoint on addr using the default transport (TCP).
// Use WithTransport for transport selection.
func Bind(addr string, opts ...EndpointOption) (Endpoint, error) {
	o := defaultEndpointOptions()
	for _, opt := range opts {
		opt(o)
	}

	bind, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	ep, err := bind(addr, o)
	if err != nil {
		return nil, err
	}
	o.log.Info().Str("transport", o.transport).Str("addr", ep.Addr()).Msg("endpoint bound")
	return ep, nil
}
