// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"net/http"
)

// StatusArgs is the (empty) argument of Heartbeat.Status.
type StatusArgs struct{}

// StatusReply describes a heartbeat server at one instant.
type StatusReply struct {
	RunID   string   `json:"runId"`
	State   string   `json:"state"`
	Beats   uint64   `json:"beats"`
	Addr    string   `json:"addr"`
	Methods []string `json:"methods"`
}

// StatusService is a read-only JSON-RPC service over a Server, registered as
// "Heartbeat" on the admin surface.
type StatusService struct {
	srv *Server
}

// NewStatusService exposes s read-only.
func NewStatusService(s *Server) *StatusService {
	return &StatusService{srv: s}
}

// Status fills reply from the server's current state.
func (s *StatusService) Status(r *http.Request, args *StatusArgs, reply *StatusReply) error {
	*reply = s.Snapshot()
	return nil
}

// Snapshot returns the current status without going through JSON-RPC.
func (s *StatusService) Snapshot() StatusReply {
	return StatusReply{
		RunID:   s.srv.RunID(),
		State:   s.srv.State().String(),
		Beats:   s.srv.Beats(),
		Addr:    s.srv.Addr(),
		Methods: s.srv.Methods(),
	}
}
