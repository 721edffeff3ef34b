package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cryft-labs/dakota/dakota/dist"
	"github.com/cryft-labs/dakota/dakota/keygen"
)

var (
	sendTo          string
	sendFingerprint string
	sendToken       string
	sendDelete      bool
)

var sendCmd = &cobra.Command{
	Use:   "send <key-dir>",
	Short: "Send one key set directory to a receiver",
	Long: `Pack a key set directory and send it over QUIC to a running
"dakota-keywizard receive". The receiver's certificate fingerprint and
session token, printed when it starts, must be given with --fingerprint and
--token.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "receiver address (host:port)")
	sendCmd.Flags().StringVar(&sendFingerprint, "fingerprint", "", "receiver certificate fingerprint")
	sendCmd.Flags().StringVar(&sendToken, "token", "", "receiver session token")
	sendCmd.Flags().BoolVar(&sendDelete, "delete", false, "delete the local key set after a successful transfer")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("fingerprint")
	_ = sendCmd.MarkFlagRequired("token")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	w := &wizard{cfg: cfg, log: logger, out: cmd.OutOrStdout()}
	dir := expandHome(args[0])

	to := dist.Target{Addr: sendTo, Fingerprint: sendFingerprint, Token: sendToken}
	res, err := w.sendDir(cmd.Context(), to, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Sent %s to %s:%s (root %s, %d bytes)\n", res.Name, sendTo, res.Path, res.Root, res.Size)

	if sendDelete {
		if failed := keygen.DeleteTree(dir); len(failed) > 0 {
			return fmt.Errorf("could not remove %d paths under %s", len(failed), dir)
		}
		fmt.Fprintf(w.out, "Deleted %s\n", dir)
	}
	return nil
}
