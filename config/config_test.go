package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solidus.toml")
	content := []byte(`
v_max = 65536
dlog_gap = 256
tree_depth = 8
bucket_size = 4
stash_size = 16
transaction_timeout_ms = 5000
executor_pool_size = 4
data_dir = "/tmp/solidus"
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 65536, cfg.VMax)
	require.EqualValues(t, 256, cfg.Gap)
	require.Equal(t, 8, cfg.TreeDepth)
	require.Equal(t, 4, cfg.BucketSize)
	require.Equal(t, 16, cfg.StashSize)
	require.EqualValues(t, 5000, cfg.TransactionTimeoutMs)
	require.Equal(t, 4, cfg.ExecutorPoolSize)
	require.Equal(t, "/tmp/solidus", cfg.DataDir)
}

func TestLoadRejectsInvalidShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`tree_depth = 0`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
