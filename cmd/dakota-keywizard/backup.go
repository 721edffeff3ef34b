package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/transfer"
	"github.com/cryft-labs/dakota/dakota/transfer/erasure"
)

var (
	backupData   int
	backupParity int
	backupOut    string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Erasure-coded backups of key sets",
}

var backupSplitCmd = &cobra.Command{
	Use:   "split <key-dir>",
	Short: "Split a key set into data and parity shards",
	Long: `Pack a key set directory and Reed-Solomon encode it into --data + --parity
shard files. Any --data of them restore the key set. Store shards in separate
places; each one alone reveals part of the key material.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupSplit,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <shard>...",
	Short: "Restore a key set from shard files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBackupRestore,
}

func init() {
	backupSplitCmd.Flags().IntVar(&backupData, "data", 3, "data shards")
	backupSplitCmd.Flags().IntVar(&backupParity, "parity", 2, "parity shards")
	backupSplitCmd.Flags().StringVar(&backupOut, "out", ".", "directory for shard files")
	backupRestoreCmd.Flags().StringVar(&backupOut, "out", ".", "directory to restore the key set into")
	backupCmd.AddCommand(backupSplitCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

func runBackupSplit(cmd *cobra.Command, args []string) error {
	codec, err := erasure.NewCodec(backupData, backupParity)
	if err != nil {
		return err
	}
	b, err := transfer.PackDir(expandHome(args[0]))
	if err != nil {
		return err
	}
	shards, err := erasure.Split(b.Name, b.Data, backupData, backupParity)
	if err != nil {
		return err
	}
	out := expandHome(backupOut)
	if err := os.MkdirAll(out, 0o700); err != nil {
		return err
	}
	paths, err := erasure.WriteShards(out, shards)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	logger.Info("key set split",
		zap.String("name", b.Name),
		zap.Int("data", backupData),
		zap.Int("parity", backupParity),
		zap.Int("shard_size", codec.ShardSize(len(b.Data))),
		zap.Float64("overhead", codec.Overhead()))
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	paths := make([]string, len(args))
	for i, a := range args {
		paths[i] = expandHome(a)
	}
	shards, skipped := erasure.ReadShards(paths)
	for p, err := range skipped {
		logger.Warn("skipping shard", zap.String("path", p), zap.Error(err))
	}
	name, payload, err := erasure.Restore(shards)
	if err != nil {
		return err
	}
	b, err := transfer.NewBundle(name, payload)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(expandHome(backupOut))
	if err != nil {
		return err
	}
	path, err := b.Unpack(dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %d shards\n", path, len(shards))
	return nil
}
