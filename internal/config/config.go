// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the heartbeat server configuration from defaults,
// an optional YAML file and BEATRPC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luxfi/beatrpc"
)

// Validation errors.
var (
	ErrInvalidPort      = errors.New("config: invalid port")
	ErrUnknownTransport = errors.New("config: unknown transport")
)

// Config holds everything needed to start a heartbeat server.
type Config struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	Transport string `yaml:"transport"`
	// Interval is the heartbeat period in seconds.
	Interval float64 `yaml:"interval"`
	// Linger is how long unsent frames may delay close, in milliseconds.
	Linger int `yaml:"linger_ms"`

	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// AdminAddr enables the HTTP admin surface (/healthz, /metrics, /rpc).
	AdminAddr      string   `yaml:"admin_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// HealthAddr enables the gRPC health service.
	HealthAddr string `yaml:"health_addr"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      "3000",
		Transport: beatrpc.DefaultTransport,
		Interval:  1.0,
		Linger:    5000,
		LogLevel:  "info",
	}
}

// LoadFile populates the config from a YAML file.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

// ApplyEnv overrides fields from BEATRPC_* environment variables.
func (c *Config) ApplyEnv() {
	c.Host = getEnv("BEATRPC_HOST", c.Host)
	c.Port = getEnv("BEATRPC_PORT", c.Port)
	c.Transport = getEnv("BEATRPC_TRANSPORT", c.Transport)
	if v, err := strconv.ParseFloat(getEnv("BEATRPC_INTERVAL", ""), 64); err == nil {
		c.Interval = v
	}
	if v, err := strconv.Atoi(getEnv("BEATRPC_LINGER_MS", "")); err == nil {
		c.Linger = v
	}
	if v, err := strconv.ParseBool(getEnv("BEATRPC_DEBUG", "")); err == nil {
		c.Debug = v
	}
	c.LogLevel = getEnv("BEATRPC_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("BEATRPC_LOG_FILE", c.LogFile)
	c.AdminAddr = getEnv("BEATRPC_ADMIN_ADDR", c.AdminAddr)
	c.HealthAddr = getEnv("BEATRPC_HEALTH_ADDR", c.HealthAddr)
	if v := getEnv("BEATRPC_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	// Bounds apply to the configured seconds, before any conversion.
	lo, hi := beatrpc.MinInterval.Seconds(), beatrpc.MaxInterval.Seconds()
	if !(c.Interval >= lo && c.Interval <= hi) {
		return fmt.Errorf("%w: %v s not in [%v, %v]", beatrpc.ErrInterval, c.Interval, lo, hi)
	}
	p, err := strconv.Atoi(c.Port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, c.Port)
	}
	if !beatrpc.HasTransport(c.Transport) {
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IntervalDuration converts Interval to a duration, rounded to the nearest
// nanosecond.
func (c Config) IntervalDuration() time.Duration {
	return time.Duration(math.Round(c.Interval * float64(time.Second)))
}

// LingerDuration converts Linger to a duration.
func (c Config) LingerDuration() time.Duration {
	return time.Duration(c.Linger) * time.Millisecond
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func splitComma(v string) []string {
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
