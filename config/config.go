// Package config loads client settings from a file and the environment.
//
// Keys (YAML shown; every key can be overridden by CACHEGATE_<KEY> with dots
// replaced by underscores, e.g. CACHEGATE_REDIS_SERVERS):
//
//	log_level: info
//	redis:
//	  mode: static            # static | sentinel | sharded
//	  servers: 10.0.0.1:6379  # comma-separated
//	  master: mymaster        # sentinel only
//	  timeout: 1s
//	  slow_threshold: 50ms
//	  pool:
//	    max_total: 20
//	    max_wait: 1s
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/cachegate"
	"github.com/unkn0wn-root/cachegate/pool"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Redis    Redis  `mapstructure:"redis"`
}

type Redis struct {
	Name             string        `mapstructure:"name"`
	Mode             string        `mapstructure:"mode"`
	Servers          string        `mapstructure:"servers"`
	Master           string        `mapstructure:"master"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	SentinelPassword string        `mapstructure:"sentinel_password"`
	DB               int           `mapstructure:"db"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SlowThreshold    time.Duration `mapstructure:"slow_threshold"`
	MonitorInterval  time.Duration `mapstructure:"monitor_interval"`
	WarnThreshold    int           `mapstructure:"warn_threshold"`
	DisableMonitor   bool          `mapstructure:"disable_monitor"`
	Pool             Pool          `mapstructure:"pool"`
}

// Pool overrides individual fields of the mode's default pool.Config. Zero
// values keep the default.
type Pool struct {
	MaxTotal           int           `mapstructure:"max_total"`
	MaxIdle            int           `mapstructure:"max_idle"`
	MinIdle            int           `mapstructure:"min_idle"`
	MaxWait            time.Duration `mapstructure:"max_wait"`
	BlockWhenExhausted *bool         `mapstructure:"block_when_exhausted"`
	TestOnBorrow       bool          `mapstructure:"test_on_borrow"`
	EvictionInterval   time.Duration `mapstructure:"eviction_interval"`
}

const envPrefix = "CACHEGATE"

// keys are registered with viper so AutomaticEnv can override them even when
// the file does not mention them.
var defaults = map[string]any{
	"log_level":                    "info",
	"redis.name":                   "",
	"redis.mode":                   "static",
	"redis.servers":                "",
	"redis.master":                 "",
	"redis.username":               "",
	"redis.password":               "",
	"redis.sentinel_password":      "",
	"redis.db":                     0,
	"redis.timeout":                "0s",
	"redis.slow_threshold":         "0s",
	"redis.monitor_interval":       "0s",
	"redis.warn_threshold":         0,
	"redis.disable_monitor":        false,
	"redis.pool.max_total":         0,
	"redis.pool.max_idle":          0,
	"redis.pool.min_idle":          0,
	"redis.pool.max_wait":          "0s",
	"redis.pool.test_on_borrow":    false,
	"redis.pool.eviction_interval": "0s",
}

// Load reads path (or cachegate.yaml in . and ./config when path is empty)
// and applies environment overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cachegate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return nil, err
		}
	}
	return FromViper(v)
}

// FromViper decodes an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	if l, err := zerolog.ParseLevel(c.LogLevel); err == nil && c.LogLevel != "" {
		return l
	}
	return zerolog.InfoLevel
}

// Topology builds and validates the configured topology.
func (r Redis) Topology() (cachegate.Topology, error) {
	switch strings.ToLower(r.Mode) {
	case "", "static":
		return cachegate.ParseTopology(false, "", r.Servers)
	case "sentinel":
		return cachegate.ParseTopology(true, r.Master, r.Servers)
	case "sharded":
		eps, err := cachegate.ParseEndpoints(r.Servers)
		if err != nil {
			return cachegate.Topology{}, err
		}
		t := cachegate.Sharded(eps...)
		return t, t.Validate()
	default:
		return cachegate.Topology{}, &cachegate.ConfigError{Field: "mode", Reason: "unknown mode " + r.Mode}
	}
}

func (p Pool) apply(base pool.Config) pool.Config {
	if p.MaxTotal > 0 {
		base.MaxTotal = p.MaxTotal
		if base.MaxIdle > base.MaxTotal {
			base.MaxIdle = base.MaxTotal
		}
		if base.MinIdle > base.MaxIdle {
			base.MinIdle = base.MaxIdle
		}
	}
	if p.MaxIdle > 0 {
		base.MaxIdle = p.MaxIdle
	}
	if p.MinIdle > 0 {
		base.MinIdle = p.MinIdle
	}
	if p.MaxWait > 0 {
		base.MaxWait = p.MaxWait
	}
	if p.BlockWhenExhausted != nil {
		base.BlockWhenExhausted = *p.BlockWhenExhausted
	}
	if p.TestOnBorrow {
		base.TestOnBorrow = true
	}
	if p.EvictionInterval > 0 {
		base.EvictionInterval = p.EvictionInterval
	}
	return base
}

// Options maps a static or sentinel configuration onto cachegate.Options.
// Logger, Hooks and Interceptor are left for the caller.
func (r Redis) Options() (cachegate.Options, error) {
	t, err := r.Topology()
	if err != nil {
		return cachegate.Options{}, err
	}
	if t.Mode == cachegate.ModeSharded {
		return cachegate.Options{}, &cachegate.ConfigError{Field: "mode", Reason: "sharded mode needs ShardedOptions"}
	}
	return cachegate.Options{
		Name:             r.Name,
		Topology:         t,
		Pool:             r.Pool.apply(pool.DefaultConfig()),
		Username:         r.Username,
		Password:         r.Password,
		SentinelPassword: r.SentinelPassword,
		DB:               r.DB,
		Timeout:          r.Timeout,
		SlowThreshold:    r.SlowThreshold,
		MonitorInterval:  r.MonitorInterval,
		WarnThreshold:    r.WarnThreshold,
		DisableMonitor:   r.DisableMonitor,
	}, nil
}

func (r Redis) ShardedOptions() (cachegate.ShardedOptions, error) {
	t, err := r.Topology()
	if err != nil {
		return cachegate.ShardedOptions{}, err
	}
	if t.Mode != cachegate.ModeSharded {
		return cachegate.ShardedOptions{}, &cachegate.ConfigError{Field: "mode", Reason: t.Mode.String() + " mode needs Options"}
	}
	return cachegate.ShardedOptions{
		Name:          r.Name,
		Topology:      t,
		Pool:          r.Pool.apply(pool.ShardedDefaultConfig()),
		Username:      r.Username,
		Password:      r.Password,
		Timeout:       r.Timeout,
		SlowThreshold: r.SlowThreshold,
	}, nil
}
