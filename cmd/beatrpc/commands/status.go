// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/beatrpc"
)

var (
	statusURL    string
	statusHealth string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "queries the admin JSON-RPC endpoint and the gRPC health service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		out := cmd.OutOrStdout()
		if statusURL != "" {
			reply, err := beatrpc.QueryStatus(ctx, statusURL)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(reply, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		}
		if statusHealth != "" {
			st, err := beatrpc.CheckHealth(ctx, statusHealth)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "health\t%s\n", st)
		}
		return nil
	},
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusURL, "url", "http://127.0.0.1:9090/rpc", "admin JSON-RPC URL (empty skips)")
	f.StringVar(&statusHealth, "health-addr", "", "gRPC health address (empty skips)")
}
