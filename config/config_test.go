package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cachegate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cachegate.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadStatic(t *testing.T) {
	p := writeConfig(t, `
log_level: debug
redis:
  servers: 10.0.0.1:6379
  timeout: 250ms
  slow_threshold: 20ms
  pool:
    max_total: 4
    max_wait: 100ms
    block_when_exhausted: false
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, c.Level())

	opts, err := c.Redis.Options()
	require.NoError(t, err)
	assert.Equal(t, cachegate.ModeStatic, opts.Topology.Mode)
	assert.Equal(t, "10.0.0.1:6379", opts.Topology.Endpoints[0].String())
	assert.Equal(t, 250*time.Millisecond, opts.Timeout)
	assert.Equal(t, 20*time.Millisecond, opts.SlowThreshold)
	assert.Equal(t, 4, opts.Pool.MaxTotal)
	assert.Equal(t, 4, opts.Pool.MaxIdle, "max_idle is clamped to max_total")
	assert.Equal(t, 100*time.Millisecond, opts.Pool.MaxWait)
	assert.False(t, opts.Pool.BlockWhenExhausted)
	require.NoError(t, opts.Pool.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeConfig(t, `
redis:
  mode: sentinel
  servers: s1:26379
  master: old
`)
	t.Setenv("CACHEGATE_REDIS_MASTER", "mymaster")
	t.Setenv("CACHEGATE_REDIS_SERVERS", "s1:26379,s2:26379")
	t.Setenv("CACHEGATE_REDIS_PASSWORD", "secret")

	c, err := Load(p)
	require.NoError(t, err)
	opts, err := c.Redis.Options()
	require.NoError(t, err)
	assert.Equal(t, cachegate.ModeSentinel, opts.Topology.Mode)
	assert.Equal(t, "mymaster", opts.Topology.MasterName)
	assert.Len(t, opts.Topology.Endpoints, 2)
	assert.Equal(t, "secret", opts.Password)
}

func TestShardedOptions(t *testing.T) {
	c, err := Load(writeConfig(t, `
redis:
  mode: sharded
  servers: a:1,b:2,c:3
`))
	require.NoError(t, err)

	so, err := c.Redis.ShardedOptions()
	require.NoError(t, err)
	assert.Len(t, so.Topology.Endpoints, 3)
	assert.Equal(t, 1000, so.Pool.MaxTotal)
	assert.False(t, so.Pool.BlockWhenExhausted)

	_, err = c.Redis.Options()
	var ce *cachegate.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestInvalidConfigs(t *testing.T) {
	var ce *cachegate.ConfigError
	for _, r := range []Redis{
		{Mode: "cluster", Servers: "a:1"},
		{Mode: "static", Servers: "a:1,b:2"},
		{Mode: "sentinel", Servers: "a:1"},
		{Mode: "sharded", Servers: "a:1,a:1"},
		{Mode: "static", Servers: "nope"},
	} {
		_, err := r.Topology()
		assert.True(t, errors.As(err, &ce), "%+v: %v", r, err)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	c, err := Load("")
	require.NoError(t, err, "a missing default file is not an error")
	assert.Equal(t, "static", c.Redis.Mode)
	assert.Equal(t, zerolog.InfoLevel, c.Level())
}
