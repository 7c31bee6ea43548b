// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"context"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthFollowsLoopState(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs, err := ListenHealth("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenHealth: %v", err)
	}
	defer hs.Close()
	go hs.Serve()

	check := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		got, err := CheckHealth(ctx, hs.Addr())
		if err != nil {
			t.Fatalf("CheckHealth: %v", err)
		}
		if got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	}

	check(healthpb.HealthCheckResponse_NOT_SERVING)

	ep := newScript([]string{"beat"}, []string{"STOP"})
	var observed []healthpb.HealthCheckResponse_ServingStatus
	s, _ := newTestServer(ep, nil, WithStateHook(func(st State) {
		hs.Observe(st)
		got, err := CheckHealth(ctx, hs.Addr())
		if err != nil {
			t.Errorf("CheckHealth: %v", err)
		}
		observed = append(observed, got)
	}))
	if err := s.Run(time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []healthpb.HealthCheckResponse_ServingStatus{
		healthpb.HealthCheckResponse_SERVING,
		healthpb.HealthCheckResponse_NOT_SERVING,
	}
	if len(observed) != len(want) || observed[0] != want[0] || observed[1] != want[1] {
		t.Fatalf("observed %v, want %v", observed, want)
	}
	check(healthpb.HealthCheckResponse_NOT_SERVING)
}
