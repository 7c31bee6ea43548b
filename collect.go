// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"errors"
	"fmt"
)

// MaxPayloadFrames is the most payload frames one message may carry.
const MaxPayloadFrames = 10

// ErrFrameCeiling is fatal: the peer kept sending past MaxPayloadFrames.
var ErrFrameCeiling = errors.New("beatrpc: payload frame ceiling exceeded")

// collectPayload reads the frames following a head frame, in order, until
// the endpoint reports no more. Reading stops with ErrFrameCeiling as soon
// as more than MaxPayloadFrames frames have been read.
func collectPayload(ep Endpoint, onFrame func(i int, text string)) ([]string, error) {
	var payload []string
	for more := ep.More(); more; more = ep.More() {
		text, err := ep.Recv()
		if err != nil {
			return nil, err
		}
		payload = append(payload, text)
		if onFrame != nil {
			onFrame(len(payload), text)
		}
		if len(payload) > MaxPayloadFrames {
			return nil, fmt.Errorf("%w: count = %d > %d", ErrFrameCeiling, len(payload), MaxPayloadFrames)
		}
	}
	return payload, nil
}
