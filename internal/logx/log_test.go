// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logx_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/luxfi/beatrpc/internal/logx"
)

func TestConfigureLogLevel(t *testing.T) {
	defer logx.Configure("info")

	logx.Configure("all")
	if zerolog.GlobalLevel() != zerolog.TraceLevel {
		t.Fatalf("expected trace level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("WARNING")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("none")
	if zerolog.GlobalLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("bogus")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", zerolog.GlobalLevel())
	}
}

func TestNewWritesTimestampedLines(t *testing.T) {
	var file bytes.Buffer
	l := logx.New(logx.Options{File: &file})
	l.Info().Str("addr", "tcp://127.0.0.1:3000").Msg("bound")

	var ev map[string]any
	if err := json.Unmarshal(file.Bytes(), &ev); err != nil {
		t.Fatalf("decode %q: %v", file.String(), err)
	}
	if ev["message"] != "bound" {
		t.Fatalf("message = %v", ev["message"])
	}
	if _, ok := ev["time"]; !ok {
		t.Fatalf("missing timestamp in %v", ev)
	}
}

func TestNewMirrorsToConsoleInDebug(t *testing.T) {
	var console, file bytes.Buffer
	l := logx.New(logx.Options{Debug: true, Console: &console, File: &file})
	l.Info().Msg("Beginning heartbeat")

	if !strings.Contains(console.String(), "Beginning heartbeat") {
		t.Fatalf("console output %q", console.String())
	}
	if !strings.Contains(file.String(), "Beginning heartbeat") {
		t.Fatalf("file output %q", file.String())
	}
}

func TestNewWithoutSinksDiscards(t *testing.T) {
	l := logx.New(logx.Options{})
	if l.GetLevel() != zerolog.Disabled {
		t.Fatalf("level = %s, want disabled", l.GetLevel())
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	for i := 0; i < 2; i++ {
		f, err := logx.OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		l := logx.New(logx.Options{File: f})
		l.Info().Int("run", i).Msg("start")
		f.Close()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n := strings.Count(string(b), "\n"); n != 2 {
		t.Fatalf("got %d lines, want 2", n)
	}
}
