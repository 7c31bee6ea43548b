// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxfi/beatrpc"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := c.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("got %q, want %q", got, "127.0.0.1:3000")
	}
	if got := c.LingerDuration(); got != 5*time.Second {
		t.Errorf("linger = %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beatrpc.yaml")
	data := []byte(`
host: 0.0.0.0
port: "4000"
transport: ws
interval: 0.25
debug: true
admin_addr: 127.0.0.1:9090
allowed_origins: ["http://localhost:8000"]
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Addr() != "0.0.0.0:4000" || c.Transport != "ws" || !c.Debug {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.IntervalDuration() != 250*time.Millisecond {
		t.Fatalf("interval = %v", c.IntervalDuration())
	}
	if c.Linger != 5000 {
		t.Fatalf("linger default overwritten: %d", c.Linger)
	}
	if len(c.AllowedOrigins) != 1 {
		t.Fatalf("origins = %v", c.AllowedOrigins)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BEATRPC_PORT", "3100")
	t.Setenv("BEATRPC_INTERVAL", "0.01")
	t.Setenv("BEATRPC_DEBUG", "true")
	t.Setenv("BEATRPC_ALLOWED_ORIGINS", "a, b")

	c := Default()
	c.ApplyEnv()
	if c.Port != "3100" || c.Interval != 0.01 || !c.Debug {
		t.Fatalf("unexpected config %+v", c)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "b" {
		t.Fatalf("origins = %q", c.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"interval too small", func(c *Config) { c.Interval = 0.0005 }, beatrpc.ErrInterval},
		{"interval too large", func(c *Config) { c.Interval = 1.5 }, beatrpc.ErrInterval},
		{"interval just above max", func(c *Config) { c.Interval = 1.0000000009 }, beatrpc.ErrInterval},
		{"interval barely above max", func(c *Config) { c.Interval = 1.0000000001 }, beatrpc.ErrInterval},
		{"interval just below min", func(c *Config) { c.Interval = 0.0009999999999 }, beatrpc.ErrInterval},
		{"interval not a number", func(c *Config) { c.Interval = math.NaN() }, beatrpc.ErrInterval},
		{"interval at min", func(c *Config) { c.Interval = 0.001 }, nil},
		{"interval at max", func(c *Config) { c.Interval = 1.0 }, nil},
		{"bad port", func(c *Config) { c.Port = "http" }, ErrInvalidPort},
		{"port out of range", func(c *Config) { c.Port = "70000" }, ErrInvalidPort},
		{"unknown transport", func(c *Config) { c.Transport = "ipc" }, ErrUnknownTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
