// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/beatrpc"
	"github.com/luxfi/beatrpc/internal/config"
)

var (
	probeCall    string
	probeStop    bool
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe [argument]",
	Short: "sends one beat, optionally carrying a call, and prints the reply",
	Long: `probe connects as the client, sends a beat and prints the decoded response.
With an argument the beat carries a call to --call (echo by default).
With --stop it sends the stop directive instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		frames := []string{"beat"}
		switch {
		case probeStop:
			frames = []string{beatrpc.StopDirective}
		case len(args) == 1:
			frames = append(frames, probeCall, args[0])
		}
		return probe(ctx, cfg, frames, cmd.OutOrStdout())
	},
}

func init() {
	f := probeCmd.Flags()
	f.StringVar(&probeCall, "call", "echo", "method to call when an argument is given")
	f.BoolVar(&probeStop, "stop", false, "send the stop directive")
	f.DurationVar(&probeTimeout, "timeout", 5*time.Second, "dial timeout")
}

func probe(ctx context.Context, cfg config.Config, frames []string, out io.Writer) error {
	var (
		peer beatrpc.Peer
		err  error
	)
	switch cfg.Transport {
	case beatrpc.TransportWS:
		peer, err = beatrpc.DialWS(ctx, "ws://"+cfg.Addr()+"/")
	default:
		peer, err = beatrpc.Dial(ctx, cfg.Addr())
	}
	if err != nil {
		return err
	}
	defer peer.Close()

	if err := peer.SendMessage(frames...); err != nil {
		return err
	}
	text, err := peer.Recv()
	if err != nil {
		return err
	}
	resp, err := beatrpc.DecodeResponse(text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%q\n", resp.Kind, resp.Text)
	return resp.Err()
}
