package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/cryft-labs/dakota/dakota/keystore"
)

// isolate points HOME and the working directory at an empty temp dir so no
// real dakota.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)
	return home
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolate(t)

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "dakota-keys"), c.Out)
	require.Equal(t, runtime.NumCPU(), c.Workers)
	require.True(t, c.EOA.Enabled)
	require.Equal(t, 1, c.EOA.Count)
	require.Equal(t, "eoa-", c.EOA.Prefix)
	require.False(t, c.EOA.Keystore)
	require.Equal(t, "besu-node-", c.Node.Prefix)
	require.Zero(t, c.Node.Count)
	require.Equal(t, "tessera", c.Tessera.Bin)
	require.Equal(t, "nodeKey", c.Tessera.Basename)
	require.Equal(t, keystore.DefaultIterations, c.Keystore.Iterations)
	require.Equal(t, 3, c.Transfer.Attempts)
	require.Equal(t, 15*time.Second, c.Transfer.RetryDelay)
	require.Equal(t, ":7443", c.Transfer.Listen)
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, "console", c.Log.Format)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("DAKOTA_EOA_COUNT", "7")
	t.Setenv("DAKOTA_NODE_PREFIX", "validator-")
	t.Setenv("DAKOTA_TRANSFER_RETRY_DELAY", "2s")
	t.Setenv("DAKOTA_OUT", "~/keys")

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, 7, c.EOA.Count)
	require.Equal(t, "validator-", c.Node.Prefix)
	require.Equal(t, 2*time.Second, c.Transfer.RetryDelay)
	require.Equal(t, filepath.Join(os.Getenv("HOME"), "keys"), c.Out)
}

func TestLoadConfigFile(t *testing.T) {
	home := isolate(t)
	yaml := `out: /srv/keys
eoa:
  count: 4
  keystore: true
node:
  count: 2
tessera:
  locked: true
log:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "dakota.yaml"), []byte(yaml), 0o600))

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "/srv/keys", c.Out)
	require.Equal(t, 4, c.EOA.Count)
	require.True(t, c.EOA.Keystore)
	require.Equal(t, 2, c.Node.Count)
	require.True(t, c.Tessera.Locked)
	require.Equal(t, "json", c.Log.Format)
	// Untouched keys keep their defaults.
	require.Equal(t, "eoa-", c.EOA.Prefix)
}

func TestLoadConfigExplicitFileMissing(t *testing.T) {
	home := isolate(t)
	_, err := loadConfig(viper.New(), filepath.Join(home, "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"DAKOTA_EOA_COUNT":           "5001",
		"DAKOTA_TESSERA_COUNT":       "-1",
		"DAKOTA_KEYSTORE_ITERATIONS": "0",
		"DAKOTA_TRANSFER_ATTEMPTS":   "0",
	}
	for env, val := range cases {
		t.Run(env, func(t *testing.T) {
			isolate(t)
			t.Setenv(env, val)
			_, err := loadConfig(viper.New(), "")
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		lg, err := newLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		require.NotNil(t, lg)
	}
	_, err := newLogger(LogConfig{Level: "loud"})
	require.Error(t, err)
}
