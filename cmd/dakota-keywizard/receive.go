package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/dist"
)

var (
	receiveListen string
	receiveOut    string
	receiveOnce   bool
)

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Accept key sets sent by other wizards",
	Long: `Listen for key sets over QUIC and unpack each one under the output
directory. The certificate fingerprint and a session token are printed to
stdout; senders must pass them with --fingerprint and --token. The token
changes every time the receiver starts. Existing key set directories are
never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runReceive,
}

func init() {
	receiveCmd.Flags().StringVar(&receiveListen, "listen", "", "listen address (default from transfer.listen)")
	receiveCmd.Flags().StringVar(&receiveOut, "out", "", "directory to store received key sets (default from out)")
	receiveCmd.Flags().BoolVar(&receiveOnce, "once", false, "exit after one key set")
	rootCmd.AddCommand(receiveCmd)
}

func runReceive(cmd *cobra.Command, _ []string) error {
	listen := receiveListen
	if listen == "" {
		listen = cfg.Transfer.Listen
	}
	out := expandHome(receiveOut)
	if out == "" {
		out = cfg.Out
	}
	if err := os.MkdirAll(out, 0o700); err != nil {
		return err
	}

	r, err := dist.NewReceiver(listen, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Info("receiver listening", zap.String("addr", r.Addr()), zap.String("out", out))
	fmt.Fprintf(cmd.OutOrStdout(), "fingerprint %s\n", r.Fingerprint())
	fmt.Fprintf(cmd.OutOrStdout(), "token %s\n", r.Token())

	ctx := cmd.Context()
	if receiveOnce {
		res, err := r.Receive(ctx, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "received %s -> %s\n", res.Name, res.Path)
		return nil
	}
	return r.Serve(ctx, out, func(res *dist.Result) {
		fmt.Fprintf(cmd.OutOrStdout(), "received %s -> %s\n", res.Name, res.Path)
	})
}
