// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reporting the loop state.
const HealthService = "beatrpc.Heartbeat"

// HealthServer exposes the standard gRPC health protocol. It serves while
// the heartbeat loop is running.
type HealthServer struct {
	listener net.Listener
	server   *grpc.Server
	health   *health.Server
}

// ListenHealth binds a gRPC health server on addr.
func ListenHealth(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen: %w", err)
	}
	h := &HealthServer{
		listener: listener,
		server:   grpc.NewServer(),
		health:   health.NewServer(),
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	h.Observe(StateIdle)
	return h, nil
}

// Observe maps a loop state to a serving status. It fits WithStateHook.
func (h *HealthServer) Observe(st State) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if st == StateRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(HealthService, status)
}

// Serve blocks serving health checks until Close.
func (h *HealthServer) Serve() error {
	return h.server.Serve(h.listener)
}

// Close stops the server
func (h *HealthServer) Close() error {
	h.health.Shutdown()
	h.server.Stop()
	return nil
}

// Addr returns the listen address
func (h *HealthServer) Addr() string {
	return h.listener.Addr().String()
}

// CheckHealth asks the health server at addr for the loop status.
func CheckHealth(ctx context.Context, addr string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("grpc dial: %w", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: HealthService})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("grpc health check: %w", err)
	}
	return resp.GetStatus(), nil
}
