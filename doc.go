// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package beatrpc implements a heartbeat driven RPC server for a single
// client over an ordered, frame oriented socket.
//
// # Protocol
//
// Every cycle the server receives one message: a head frame followed by zero
// or more payload frames. It answers with exactly one frame, then sleeps for
// the heartbeat interval:
//
//	["beat"]                    -> "beat"
//	["beat", "echo", "hello"]   -> "beat:::hello"
//	["beat", "_close", "x"]     -> "beat:::error: Cannot call internal methods!"
//	["beat", "echo"]            -> "beat:::error: Malformed packet: expected 2 frames, got 1"
//	["STOP"]                    -> "STOPPED" and the loop ends
//
// A payload is exactly [name, argument]. Names starting with "_" are never
// callable. More than MaxPayloadFrames payload frames end the run with
// ErrFrameCeiling.
//
// # Transport Selection
//
// TCP is the default transport; websocket is available by name. Either way
// one peer is served at a time, and a peer that hangs up between messages
// makes room for the next:
//
//	ep, err := beatrpc.Bind("127.0.0.1:3000")
//	ep, err := beatrpc.Bind("127.0.0.1:3000", beatrpc.WithTransport(beatrpc.TransportWS))
//
// # Usage
//
// Server usage:
//
//	reg := beatrpc.NewRegistry() // exposes echo
//	reg.Register("upper", strings.ToUpper)
//
//	srv := beatrpc.NewServer(ep, reg, beatrpc.WithLogger(log))
//	if err := srv.Run(100 * time.Millisecond); err != nil {
//	    log.Fatal().Err(err).Msg("heartbeat")
//	}
//
// Client usage:
//
//	peer, err := beatrpc.Dial(ctx, "127.0.0.1:3000")
//	peer.SendMessage("beat", "echo", "hello")
//	text, err := peer.Recv()
//	resp, err := beatrpc.DecodeResponse(text) // {KindResult, "hello"}
//
// # Architecture
//
//   - endpoint.go: Endpoint and Peer interfaces, endpoint options
//   - transport.go: transport registry
//   - bind.go: Bind factory
//   - frame.go: TCP framing, TCPEndpoint and FrameConn
//   - websocket.go: websocket endpoint and peer
//   - server.go: heartbeat loop and stop directive
//   - collect.go: bounded payload collection
//   - dispatch.go, registry.go: method registry and dispatch
//   - response.go: response encoding
//   - status.go, json.go, health.go: JSON-RPC status and gRPC health surfaces
package beatrpc
