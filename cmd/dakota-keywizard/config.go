package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cryft-labs/dakota/dakota/keystore"
)

// Config holds every setting of the wizard. Values come from flags, then
// DAKOTA_* environment variables, then an optional dakota.yaml, then defaults.
type Config struct {
	Out            string         `mapstructure:"out"`
	NonInteractive bool           `mapstructure:"non_interactive"`
	Workers        int            `mapstructure:"workers"`
	EOA            EOAConfig      `mapstructure:"eoa"`
	Node           NodeConfig     `mapstructure:"node"`
	Tessera        TesseraConfig  `mapstructure:"tessera"`
	Keystore       KeystoreConfig `mapstructure:"keystore"`
	Transfer       TransferConfig `mapstructure:"transfer"`
	Log            LogConfig      `mapstructure:"log"`
}

// EOAConfig controls externally owned account generation.
type EOAConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Count        int    `mapstructure:"count"`
	Prefix       string `mapstructure:"prefix"`
	Keystore     bool   `mapstructure:"keystore"`
	KeystorePass string `mapstructure:"keystore_pass"`
}

// NodeConfig controls Besu node key generation.
type NodeConfig struct {
	Count  int    `mapstructure:"count"`
	Prefix string `mapstructure:"prefix"`
}

// TesseraConfig controls Tessera key generation through the tessera binary.
type TesseraConfig struct {
	Count    int    `mapstructure:"count"`
	Prefix   string `mapstructure:"prefix"`
	Bin      string `mapstructure:"bin"`
	Basename string `mapstructure:"basename"`
	Locked   bool   `mapstructure:"locked"`
}

// KeystoreConfig holds V3 keystore parameters.
type KeystoreConfig struct {
	Iterations int `mapstructure:"iterations"`
}

// TransferConfig controls the optional per-key transfer after generation.
type TransferConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Attempts   int           `mapstructure:"attempts"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	ChunkSize  int           `mapstructure:"chunk_size"`
	Listen     string        `mapstructure:"listen"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// loadConfig reads configuration into v. An empty file means "look for
// dakota.yaml in the working directory and ~/.config/dakota".
func loadConfig(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("dakota")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dakota"))
		}
	}

	v.SetEnvPrefix("DAKOTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Out = expandHome(cfg.Out)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults mirrors the flag defaults of the original shell wizard.
func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("out", filepath.Join(home, "dakota-keys"))
	v.SetDefault("non_interactive", false)
	v.SetDefault("workers", runtime.NumCPU())

	v.SetDefault("eoa.enabled", true)
	v.SetDefault("eoa.count", 1)
	v.SetDefault("eoa.prefix", "eoa-")
	v.SetDefault("eoa.keystore", false)
	v.SetDefault("eoa.keystore_pass", "")

	v.SetDefault("node.count", 0)
	v.SetDefault("node.prefix", "besu-node-")

	v.SetDefault("tessera.count", 0)
	v.SetDefault("tessera.prefix", "tessera-")
	v.SetDefault("tessera.bin", "tessera")
	v.SetDefault("tessera.basename", "nodeKey")
	v.SetDefault("tessera.locked", false)

	v.SetDefault("keystore.iterations", keystore.DefaultIterations)

	v.SetDefault("transfer.enabled", false)
	v.SetDefault("transfer.attempts", 3)
	v.SetDefault("transfer.retry_delay", "15s")
	v.SetDefault("transfer.chunk_size", 64*1024)
	v.SetDefault("transfer.listen", ":7443")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

const maxKeySets = 5000

func (c *Config) validate() error {
	if c.Out == "" {
		return errors.New("config: out must not be empty")
	}
	for name, n := range map[string]int{"eoa.count": c.EOA.Count, "node.count": c.Node.Count, "tessera.count": c.Tessera.Count} {
		if n < 0 || n > maxKeySets {
			return fmt.Errorf("config: %s must be in [0, %d], got %d", name, maxKeySets, n)
		}
	}
	if c.Keystore.Iterations <= 0 {
		return fmt.Errorf("config: keystore.iterations must be positive, got %d", c.Keystore.Iterations)
	}
	if c.Transfer.Attempts <= 0 {
		return fmt.Errorf("config: transfer.attempts must be positive, got %d", c.Transfer.Attempts)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
