package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// envSnapshot clears every COORDB_ environment variable for the duration of
// a test, restoring the original values afterward.
func envSnapshot(t *testing.T) {
	t.Helper()
	saved := make(map[string]string)
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "COORDB_") {
			parts := strings.SplitN(env, "=", 2)
			saved[parts[0]] = os.Getenv(parts[0])
			os.Unsetenv(parts[0])
		}
	}
	t.Cleanup(func() {
		for key, val := range saved {
			os.Setenv(key, val)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	envSnapshot(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, ".", cfg.DataDir)
	require.Equal(t, "worker.db", cfg.DatabaseName)
	require.Equal(t, 5*time.Second, cfg.RouterTimeout)
	require.Equal(t, "sqlite-coordination", cfg.ChannelName)
	require.Equal(t, "sqlite-database", cfg.LockName)
	require.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	envSnapshot(t)
	os.Setenv("COORDB_DATA_DIR", "/tmp/coordb-test")
	os.Setenv("COORDB_LOCK_NAME", "custom-lock")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "/tmp/coordb-test", cfg.DataDir)
	require.Equal(t, "custom-lock", cfg.LockName)
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	envSnapshot(t)
	os.Setenv("COORDB_DATA_DIR", "/tmp/from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("data-dir", ".", "")
	require.NoError(t, fs.Parse([]string{"--data-dir=/tmp/from-flag"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-flag", cfg.DataDir)
}

func TestLoad_UnsetFlagDoesNotOverrideEnvironment(t *testing.T) {
	envSnapshot(t)
	os.Setenv("COORDB_LOCK_NAME", "from-env-lock")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("lock-name", "", "")
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, "from-env-lock", cfg.LockName)
}
