// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/beatrpc/internal/config"
)

var (
	Version   = "dev"
	BuildTime string
)

var (
	cfgFile string
	flagCfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "beatrpc",
	Short: "beatrpc runs a heartbeat driven RPC server for a single client",
	Long: `beatrpc binds a frame oriented socket and answers every message from its
client with a beat. Messages may carry a function name and an argument; the
result or error rides back on the beat.`,
	SilenceUsage: true,
}

func Execute() {
	// parse flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML configuration file")
	pf.StringVar(&flagCfg.Host, "host", flagCfg.Host, "bind or dial host")
	pf.StringVarP(&flagCfg.Port, "port", "p", flagCfg.Port, "bind or dial port")
	pf.StringVarP(&flagCfg.Transport, "transport", "t", flagCfg.Transport, "frame transport (tcp, ws)")
	pf.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "log level")
	pf.BoolVarP(&flagCfg.Debug, "debug", "d", flagCfg.Debug, "mirror log events to stderr")

	// add commands
	rootCmd.AddCommand(versionCmd, startCmd, probeCmd, statusCmd)

	// execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, BEATRPC_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		if err := cfg.LoadFile(cfgFile); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = flagCfg.Host
	}
	if flags.Changed("port") {
		cfg.Port = flagCfg.Port
	}
	if flags.Changed("transport") {
		cfg.Transport = flagCfg.Transport
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagCfg.LogLevel
	}
	if flags.Changed("debug") {
		cfg.Debug = flagCfg.Debug
	}
	if flags.Changed("interval") {
		cfg.Interval = flagCfg.Interval
	}
	if flags.Changed("linger") {
		cfg.Linger = flagCfg.Linger
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagCfg.LogFile
	}
	if flags.Changed("admin") {
		cfg.AdminAddr = flagCfg.AdminAddr
	}
	if flags.Changed("health") {
		cfg.HealthAddr = flagCfg.HealthAddr
	}
	return cfg, nil
}
