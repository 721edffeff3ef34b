package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cryft-labs/dakota/dakota/identity"
	"github.com/cryft-labs/dakota/dakota/keystore"
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Inspect and verify V3 keystore files",
}

var keystoreInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print keystore metadata without decrypting",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeystoreInspect,
}

var keystoreVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Decrypt a keystore with its password and print the address",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeystoreVerify,
}

func init() {
	keystoreCmd.AddCommand(keystoreInspectCmd, keystoreVerifyCmd)
	rootCmd.AddCommand(keystoreCmd)
}

func readKeystore(path string) (*keystore.Record, error) {
	b, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, err
	}
	return keystore.Unmarshal(b)
}

func runKeystoreInspect(cmd *cobra.Command, args []string) error {
	rec, err := readKeystore(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version  %d\n", rec.Version)
	fmt.Fprintf(out, "id       %s\n", rec.ID)
	fmt.Fprintf(out, "address  0x%s\n", rec.Address)
	fmt.Fprintf(out, "cipher   %s\n", rec.Crypto.Cipher)
	fmt.Fprintf(out, "kdf      %s %s\n", rec.Crypto.KDF, rec.Crypto.KDFParams)
	return nil
}

func runKeystoreVerify(cmd *cobra.Command, args []string) error {
	rec, err := readKeystore(args[0])
	if err != nil {
		return err
	}
	pw := []byte(cfg.EOA.KeystorePass)
	if len(pw) == 0 && !cfg.NonInteractive {
		if pw, err = newTerminalPrompter().Password("Keystore password"); err != nil {
			return err
		}
	}
	priv, err := keystore.Decrypt(rec, pw)
	if err != nil {
		return err
	}
	kp, err := identity.NewKeyPair(priv)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", kp.Address().Hex())
	return nil
}
