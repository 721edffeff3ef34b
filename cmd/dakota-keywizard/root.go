package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	v       = viper.New()
	cfg     *Config
	logger  = zap.NewNop()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "dakota-keywizard",
	Short: "Generate and distribute Dakota network keys",
	Long: `Generate EOA accounts (privateKey, address, optional V3 keystore), Besu node
keys (key, key.pub) and Tessera keys (via the tessera binary), then optionally
send each key set to the machine that will use it.

Without --non-interactive the wizard asks for every setting, using flags,
DAKOTA_* environment variables and dakota.yaml as defaults.

Examples:
  dakota-keywizard
  dakota-keywizard --non-interactive --eoa-count 3 --node-count 4
  dakota-keywizard receive --out ~/dakota-keys
  dakota-keywizard send ~/dakota-keys/besu/besu-node-01 --to 10.0.0.7:7443 --fingerprint <hex> --token <token>`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runGenerate,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./dakota.yaml or ~/.config/dakota/dakota.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.format", pf.Lookup("log-format"))

	f := rootCmd.Flags()
	f.String("out", "", "base output directory (default: ~/dakota-keys)")
	f.Bool("non-interactive", false, "run without prompts, using flags and defaults")
	f.Int("workers", 0, "concurrent key generation workers (default: number of CPUs)")

	f.Bool("no-eoa", false, "disable EOA generation")
	f.Int("eoa-count", 1, "number of EOA accounts to generate")
	f.Bool("eoa-keystore", false, "also write a V3 keystore JSON per EOA")
	f.String("eoa-keystore-pass", "", "keystore password (prompted when interactive)")
	f.String("name-prefix-eoa", "eoa-", "prefix for EOA key folders")

	f.Int("node-count", 0, "number of Besu node keys to generate")
	f.String("name-prefix-node", "besu-node-", "prefix for Besu key folders")

	f.Int("tessera-count", 0, "number of Tessera keys to generate")
	f.String("tessera-bin", "tessera", "tessera binary name or path")
	f.String("tessera-basename", "nodeKey", "tessera key file base name (<base>.key, <base>.pub)")
	f.Bool("tessera-locked", false, "generate password-protected Tessera keys (tessera prompts)")
	f.String("name-prefix-tessera", "tessera-", "prefix for Tessera key folders")

	f.Int("keystore-iterations", 0, "PBKDF2 iterations for keystores (default: 262144)")
	f.Bool("send", false, "after generation, review each key set for optional transfer")

	for key, flag := range map[string]string{
		"out":                 "out",
		"non_interactive":     "non-interactive",
		"workers":             "workers",
		"eoa.count":           "eoa-count",
		"eoa.keystore":        "eoa-keystore",
		"eoa.keystore_pass":   "eoa-keystore-pass",
		"eoa.prefix":          "name-prefix-eoa",
		"node.count":          "node-count",
		"node.prefix":         "name-prefix-node",
		"tessera.count":       "tessera-count",
		"tessera.bin":         "tessera-bin",
		"tessera.basename":    "tessera-basename",
		"tessera.locked":      "tessera-locked",
		"tessera.prefix":      "name-prefix-tessera",
		"keystore.iterations": "keystore-iterations",
		"transfer.enabled":    "send",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

// setup loads configuration and the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	if noEOA, _ := cmd.Flags().GetBool("no-eoa"); noEOA {
		c.EOA.Enabled = false
	}
	lg, err := newLogger(c.Log)
	if err != nil {
		return err
	}
	cfg, logger = c, lg
	return nil
}
