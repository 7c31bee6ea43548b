// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/luxfi/beatrpc"
	"github.com/luxfi/beatrpc/internal/admin"
	"github.com/luxfi/beatrpc/internal/config"
	"github.com/luxfi/beatrpc/internal/logx"
	"github.com/luxfi/beatrpc/internal/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "binds the socket and beats until a client sends STOP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return start(cmd.Context(), cfg)
	},
}

func init() {
	f := startCmd.Flags()
	f.Float64VarP(&flagCfg.Interval, "interval", "i", flagCfg.Interval, "heartbeat interval in seconds [0.001, 1.0]")
	f.IntVar(&flagCfg.Linger, "linger", flagCfg.Linger, "linger on close in milliseconds")
	f.StringVar(&flagCfg.LogFile, "log-file", flagCfg.LogFile, "append log events to this file")
	f.StringVar(&flagCfg.AdminAddr, "admin", flagCfg.AdminAddr, "admin HTTP address (empty disables)")
	f.StringVar(&flagCfg.HealthAddr, "health", flagCfg.HealthAddr, "gRPC health address (empty disables)")
}

func start(ctx context.Context, cfg config.Config) error {
	// Configuration errors surface before any socket is bound.
	if err := cfg.Validate(); err != nil {
		return err
	}
	level := cfg.LogLevel
	if cfg.Debug && logx.ParseLevel(level) > zerolog.DebugLevel {
		// Debug output includes every frame.
		level = "debug"
	}
	logx.Configure(level)

	var file io.Writer
	if cfg.LogFile != "" {
		f, err := logx.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		file = f
	}
	log := logx.New(logx.Options{Debug: cfg.Debug, File: file})

	ep, err := beatrpc.Bind(cfg.Addr(),
		beatrpc.WithTransport(cfg.Transport),
		beatrpc.WithLinger(cfg.LingerDuration()),
		beatrpc.WithEndpointLogger(log),
	)
	if err != nil {
		return err
	}
	defer ep.Close()

	reg := beatrpc.NewRegistry()
	if err := reg.Register("version", func(string) string { return Version }); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []beatrpc.ServerOption{beatrpc.WithLogger(log)}
	if cfg.HealthAddr != "" {
		hs, err := beatrpc.ListenHealth(cfg.HealthAddr)
		if err != nil {
			return err
		}
		defer hs.Close()
		go func() {
			if err := hs.Serve(); err != nil {
				log.Error().Err(err).Msg("health server")
			}
		}()
		log.Info().Str("addr", hs.Addr()).Msg("health listening")
		opts = append(opts, beatrpc.WithStateHook(hs.Observe))
	}

	srv := beatrpc.NewServer(ep, reg, opts...)

	if cfg.AdminAddr != "" {
		if err := startAdmin(ctx, cfg, srv, log); err != nil {
			return err
		}
	}

	return srv.Run(cfg.IntervalDuration())
}

func startAdmin(ctx context.Context, cfg config.Config, srv *beatrpc.Server, log zerolog.Logger) error {
	preg := prometheus.NewRegistry()
	metrics.Register(preg)
	metrics.SetBuildInfo(Version)

	h, err := admin.New(srv, admin.Options{Gatherer: preg, AllowedOrigins: cfg.AllowedOrigins})
	if err != nil {
		return err
	}
	go func() {
		if err := admin.Serve(ctx, cfg.AdminAddr, h, log); err != nil {
			log.Error().Err(err).Msg("admin server")
		}
	}()
	return nil
}
